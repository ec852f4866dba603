package main

import (
	"testing"
)

func TestParseJobID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseJobID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseJobID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseJobID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	want := map[string]bool{"upload": false, "cancel": false, "status": false, "migrate": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}

	upload, _, err := root.Find([]string{"upload"})
	if err != nil {
		t.Fatalf("Find(upload) error = %v", err)
	}
	if f := upload.Flags().Lookup("type"); f == nil || f.Shorthand != "t" {
		t.Errorf("upload --type flag = %v, want shorthand t", f)
	}

	cancel, _, _ := root.Find([]string{"cancel"})
	if got := cancel.Flags().Lookup("type").DefValue; got != "custom_duty_rate" {
		t.Errorf("cancel --type default = %q, want custom_duty_rate", got)
	}
}
