package main

import (
	"reflect"
	"testing"
)

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantTarget string
		wantArgs   []string
	}{
		{name: "empty", args: nil, wantArgs: nil},
		{name: "ticketOnly", args: []string{"T-1001"}, wantTarget: "T-1001", wantArgs: []string{}},
		{name: "ticketAndFlags", args: []string{"T-1001", "-config", "utils.yaml"}, wantTarget: "T-1001", wantArgs: []string{"-config", "utils.yaml"}},
		{name: "flagsOnly", args: []string{"-config", "utils.yaml"}, wantArgs: []string{"-config", "utils.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, args := splitTarget(tt.args)
			if target != tt.wantTarget {
				t.Errorf("target = %q, want %q", target, tt.wantTarget)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}
