package scheduler

import "time"

const minTime = time.Second * 5

// TimeToDaily returns how long to wait until the next occurrence of offset
// past midnight UTC. It never returns less than a few seconds so a job that
// just ran is not fired twice.
func TimeToDaily(offset time.Duration) time.Duration {
	return timeToDaily(time.Now(), offset)
}

func timeToDaily(now time.Time, offset time.Duration) time.Duration {
	next := now.UTC().Truncate(24 * time.Hour).Add(offset % (24 * time.Hour))
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	wait := next.Sub(now)
	if wait <= minTime {
		return minTime
	}
	return wait
}

// Daily calls job at offset past midnight UTC every day until stop is closed.
func Daily(offset time.Duration, stop <-chan struct{}, job func()) {
	for {
		timer := time.NewTimer(TimeToDaily(offset))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			job()
		}
	}
}
