package workload

import (
	"runtime"
	"time"

	"github.com/pkg/errors"
)

// ErrAlwaysFails is returned by the "fail" workload on every call.
var ErrAlwaysFails = errors.New("workload failed on purpose")

// busyLoop spins 2^n times.
func busyLoop(args Args) error {
	n, err := single(args)
	if err != nil {
		return err
	}
	if n > 40 {
		n = 40
	}
	acc := 0
	for i := 0; i < 1<<n; i++ {
		acc += i & 1
	}
	runtime.KeepAlive(acc)
	return nil
}

// primes finds every prime below n by trial division.
func primes(args Args) error {
	limit, err := single(args)
	if err != nil {
		return err
	}
	var found []int
	for num := 2; num < limit; num++ {
		prime := true
		for i := 2; i*i <= num; i++ {
			if num%i == 0 {
				prime = false
				break
			}
		}
		if prime {
			found = append(found, num)
		}
	}
	runtime.KeepAlive(found)
	return nil
}

// mixed does n*1000 arithmetic steps then sleeps n*50ms.
func mixed(args Args) error {
	n, err := single(args)
	if err != nil {
		return err
	}
	acc := 0
	for i := 0; i < n*1000; i++ {
		acc += (i * 2) % (n + 1)
	}
	runtime.KeepAlive(acc)
	time.Sleep(time.Duration(n) * 50 * time.Millisecond)
	return nil
}

// wait sleeps n*100ms.
func wait(args Args) error {
	n, err := single(args)
	if err != nil {
		return err
	}
	time.Sleep(time.Duration(n) * 100 * time.Millisecond)
	return nil
}

func fail(Args) error {
	return ErrAlwaysFails
}
