package com

import (
	"errors"
	"testing"
)

func TestMapBasics(t *testing.T) {
	m := NewMap[string, int]()
	if !m.IsEmpty() || m.Len() != 0 {
		t.Errorf("new map is not empty")
	}

	m.Put("a", 1)
	m.Put("b", 2)
	if m.Len() != 2 || !m.Has("a") {
		t.Errorf("put/has broken")
	}

	if v, err := m.Find("b"); err != nil || v != 2 {
		t.Errorf("find(b) = %v, %v", v, err)
	}
	if _, err := m.Find("z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.Find(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("zero key should not be found")
	}

	if v, err := m.FindBy(func(v int) bool { return v > 1 }); err != nil || v != 2 {
		t.Errorf("findBy = %v, %v", v, err)
	}

	sum := 0
	m.ForEach(func(v int) { sum += v })
	if sum != 3 {
		t.Errorf("forEach visited wrong elements, sum %d", sum)
	}

	m.RemoveByKey("a")
	if m.Has("a") || m.Len() != 1 {
		t.Errorf("remove broken")
	}
}

type fakeClient struct {
	id           string
	disconnected bool
}

func (f *fakeClient) Id() string  { return f.id }
func (f *fakeClient) Disconnect() { f.disconnected = true }

func TestNetMap(t *testing.T) {
	m := NewNetMap[string, *fakeClient]()
	a, b := &fakeClient{id: "a"}, &fakeClient{id: "b"}
	m.Add(a)
	m.Add(b)
	if m.Len() != 2 {
		t.Fatalf("expected 2 clients, got %d", m.Len())
	}

	m.Remove(a)
	if m.Has("a") {
		t.Errorf("removed client still present")
	}
	if a.disconnected {
		t.Errorf("plain remove must not disconnect")
	}

	m.RemoveDisconnect(b)
	if !b.disconnected || m.Has("b") {
		t.Errorf("removeDisconnect broken")
	}
}
