// Package hk provides mechanism for registering cleanup
// functions which are invoked at specified intervals.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package hk

import (
	"container/heap"
	"time"

	"github.com/apaz-cli/ao3scraper/cmn/mono"
)

const NameSuffix = ".gc" // reg name suffix

const (
	MinInterval   = 10 * time.Second
	PruneInterval = time.Hour
	DayInterval   = 24 * time.Hour
)

type (
	// CB is a housekeeping callback; its return value is the interval until
	// the next invocation. Returning UnregInterval unregisters the callback.
	CB func() time.Duration

	request struct {
		registering bool
		name        string
		f           CB
		initial     time.Duration
	}
	timedAction struct {
		name       string
		f          CB
		updateTime int64 // mono ns
	}
	timedActions []timedAction

	housekeeper struct {
		stopCh  chan struct{}
		sigCh   chan request
		actions *timedActions
	}
)

const UnregInterval = time.Duration(-1)

var DefaultHK *housekeeper

func Init() {
	DefaultHK = &housekeeper{
		stopCh:  make(chan struct{}),
		sigCh:   make(chan request, 16),
		actions: &timedActions{},
	}
	heap.Init(DefaultHK.actions)
}

func Reg(name string, f CB, initial time.Duration) {
	DefaultHK.sigCh <- request{registering: true, name: name, f: f, initial: initial}
}

func Unreg(name string) {
	DefaultHK.sigCh <- request{registering: false, name: name}
}

func Stop() { close(DefaultHK.stopCh) }

//////////////////
// timedActions //
//////////////////

func (t timedActions) Len() int            { return len(t) }
func (t timedActions) Less(i, j int) bool  { return t[i].updateTime < t[j].updateTime }
func (t timedActions) Swap(i, j int)       { t[i], t[j] = t[j], t[i] }
func (t timedActions) Peek() *timedAction  { return &t[0] }
func (t *timedActions) Push(x any)         { *t = append(*t, x.(timedAction)) }
func (t *timedActions) Pop() any {
	old := *t
	n := len(old)
	item := old[n-1]
	*t = old[:n-1]
	return item
}

/////////////////
// housekeeper //
/////////////////

func (hk *housekeeper) Run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		select {
		case <-hk.stopCh:
			return
		case <-timer.C:
			// run all due actions
			now := mono.NanoTime()
			for hk.actions.Len() > 0 && hk.actions.Peek().updateTime <= now {
				act := heap.Pop(hk.actions).(timedAction)
				interval := act.f()
				if interval == UnregInterval {
					continue
				}
				act.updateTime = now + interval.Nanoseconds()
				heap.Push(hk.actions, act)
			}
		case req := <-hk.sigCh:
			if req.registering {
				heap.Push(hk.actions, timedAction{
					name:       req.name,
					f:          req.f,
					updateTime: mono.NanoTime() + req.initial.Nanoseconds(),
				})
			} else {
				for i, act := range *hk.actions {
					if act.name == req.name {
						heap.Remove(hk.actions, i)
						break
					}
				}
			}
		}
		hk.updateTimer(timer)
	}
}

func (hk *housekeeper) updateTimer(timer *time.Timer) {
	if hk.actions.Len() == 0 {
		timer.Reset(time.Hour)
		return
	}
	d := time.Duration(hk.actions.Peek().updateTime - mono.NanoTime())
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}
