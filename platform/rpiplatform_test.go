package platform

import (
	"reflect"
	"testing"

	"github.com/stianeikeland/go-rpio/v4"
)

func TestAssignPWM(t *testing.T) {
	cases := []struct {
		pins []int
		want []bool
	}{
		{[]int{23, 12, 13, 16}, []bool{false, true, true, false}},
		{[]int{12, 13, 18, 19}, []bool{true, true, false, false}},
		{[]int{18, 5, 6, 19}, []bool{true, false, false, true}},
		{[]int{4, 5, 6, 7}, []bool{false, false, false, false}},
	}
	for _, c := range cases {
		if got := assignPWM(c.pins); !reflect.DeepEqual(got, c.want) {
			t.Errorf("assignPWM(%v) = %v, want %v", c.pins, got, c.want)
		}
	}
}

func TestPwmDuty(t *testing.T) {
	if d := pwmDuty(350, false); d != 350 {
		t.Errorf("Expected duty 350, got %d", d)
	}
	if d := pwmDuty(350, true); d != 650 {
		t.Errorf("Expected inverted duty 650, got %d", d)
	}
	if d := pwmDuty(0, true); d != dutyRange {
		t.Errorf("Expected off to be full duty when active low, got %d", d)
	}
	if d := pwmDuty(5000, false); d != dutyRange {
		t.Errorf("Expected duty to be clamped, got %d", d)
	}
}

func TestDigitalLevel(t *testing.T) {
	if digitalLevel(true, false) != rpio.High || digitalLevel(false, false) != rpio.Low {
		t.Error("active high pins must follow the value")
	}
	if digitalLevel(true, true) != rpio.Low || digitalLevel(false, true) != rpio.High {
		t.Error("active low pins must be inverted")
	}
}

func TestButtonLevel(t *testing.T) {
	if !buttonLevel(rpio.Low, true) || buttonLevel(rpio.High, true) {
		t.Error("a pulled up button is pressed when low")
	}
	if !buttonLevel(rpio.High, false) || buttonLevel(rpio.Low, false) {
		t.Error("a pulled down button is pressed when high")
	}
}

func TestSoftOn(t *testing.T) {
	count := func(duty uint32) int {
		n := 0
		for step := 0; step < softSteps; step++ {
			if softOn(step, duty) {
				n++
			}
		}
		return n
	}
	for duty, want := range map[uint32]int{0: 0, 50: 1, 500: 10, 999: 20, 1000: 20} {
		if got := count(duty); got != want {
			t.Errorf("duty %d: expected %d of %d steps on, got %d", duty, want, softSteps, got)
		}
	}
}

func TestEdgesFor(t *testing.T) {
	cases := []struct {
		last, level, detected bool
		want                  []bool
	}{
		{false, false, false, nil},
		{false, true, true, []bool{true}},
		{true, false, false, []bool{false}},
		{false, false, true, []bool{true, false}},
		{true, true, true, []bool{false, true}},
	}
	for _, c := range cases {
		if got := edgesFor(c.last, c.level, c.detected); !reflect.DeepEqual(got, c.want) {
			t.Errorf("edgesFor(%v, %v, %v) = %v, want %v", c.last, c.level, c.detected, got, c.want)
		}
	}
}
