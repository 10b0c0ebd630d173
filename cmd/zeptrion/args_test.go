package main

import (
	"errors"
	"reflect"
	"testing"

	"github.com/muurk/zeptrion/internal/zeptrion"
)

func TestParseChannelArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantIDs    []int
		wantValues []bool
		wantErr    bool
	}{
		{"single", []string{"1=on"}, []int{1}, []bool{true}, false},
		{"order kept", []string{"3=off", "1=ON"}, []int{3, 1}, []bool{false, true}, false},
		{"numeric values", []string{"2=1", "4=0"}, []int{2, 4}, []bool{true, false}, false},
		{"bad value", []string{"1=dim"}, nil, nil, true},
		{"missing equals", []string{"1"}, nil, nil, true},
		{"zero id", []string{"0=on"}, nil, nil, true},
		{"missing value", []string{"1="}, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, values, err := parseChannelArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseChannelArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) || !reflect.DeepEqual(values, tt.wantValues) {
				t.Errorf("parseChannelArgs() = %v, %v; want %v, %v", ids, values, tt.wantIDs, tt.wantValues)
			}
		})
	}
}

func TestParseLedArgs(t *testing.T) {
	ids, colors, err := parseLedArgs([]string{"2=yellow", "3=#00FFFF", "4=Cyan"})
	if err != nil {
		t.Fatalf("parseLedArgs() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []int{2, 3, 4}) {
		t.Errorf("ids = %v", ids)
	}
	want := []string{zeptrion.Yellow, "#00FFFF", zeptrion.Cyan}
	if !reflect.DeepEqual(colors, want) {
		t.Errorf("colors = %v, want %v", colors, want)
	}

	if _, _, err := parseLedArgs([]string{"x=red"}); err == nil {
		t.Error("parseLedArgs() should reject a non-numeric id")
	}
}

func TestParseLabelArgs(t *testing.T) {
	labels, err := parseLabelArgs([]string{"1=Ceiling", "2=Blinds West"})
	if err != nil {
		t.Fatalf("parseLabelArgs() error = %v", err)
	}
	if labels[1] != "Ceiling" || labels[2] != "Blinds West" {
		t.Errorf("labels = %v", labels)
	}
}

func TestParseButtonArg(t *testing.T) {
	tests := []struct {
		arg       string
		want      int
		wantRange bool
		wantErr   bool
	}{
		{arg: "1", want: 1},
		{arg: " 9 ", want: 9},
		{arg: "0", wantRange: true, wantErr: true},
		{arg: "10", wantRange: true, wantErr: true},
		{arg: "five", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseButtonArg(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseButtonArg(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if tt.wantRange && !errors.Is(err, zeptrion.ErrButtonRange) {
			t.Errorf("parseButtonArg(%q) error = %v, want ErrButtonRange", tt.arg, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseButtonArg(%q) = %d, want %d", tt.arg, got, tt.want)
		}
	}
}
