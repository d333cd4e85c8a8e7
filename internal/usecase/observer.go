package usecase

import "time"

// Observer metrikalarni yozish uchun interface
type Observer interface {
	ObserveLookup(outcome string, d time.Duration)
	ObserveArticle(kind string, found bool)
	ObserveIngest(source string, rows int, err error)
	ObserveMailPoll(result string)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, time.Duration) {}
func (nopObserver) ObserveArticle(string, bool)         {}
func (nopObserver) ObserveIngest(string, int, error)    {}
func (nopObserver) ObserveMailPoll(string)              {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
