package game

import (
	"testing"
	"time"
)

func TestScheduleReplacesPendingTimer(t *testing.T) {
	s := NewScheduler()
	fired := make(chan string, 2)

	s.Schedule("ROOM1", 10*time.Millisecond, func() { fired <- "first" })
	s.Schedule("ROOM1", 20*time.Millisecond, func() { fired <- "second" })

	select {
	case got := <-fired:
		if got != "second" {
			t.Fatalf("replaced timer fired: %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	select {
	case got := <-fired:
		t.Fatalf("only one timer may fire per room, also got %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelStopsTimer(t *testing.T) {
	s := NewScheduler()
	fired := make(chan struct{}, 1)

	s.Schedule("ROOM1", 10*time.Millisecond, func() { fired <- struct{}{} })
	s.Cancel("ROOM1")

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomsAreIndependent(t *testing.T) {
	s := NewScheduler()
	fired := make(chan string, 2)

	s.Schedule("ROOM1", 10*time.Millisecond, func() { fired <- "one" })
	s.Schedule("ROOM2", 10*time.Millisecond, func() { fired <- "two" })
	s.Cancel("ROOM1")

	select {
	case got := <-fired:
		if got != "two" {
			t.Fatalf("expected only ROOM2 to fire, got %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("ROOM2's timer never fired")
	}
}

func TestCancelUnknownRoom(t *testing.T) {
	s := NewScheduler()
	s.Cancel("NEVER-SCHEDULED") // must not panic
}
