package cmd

import "testing"

func TestExecuteVersion(t *testing.T) {
	var err error
	out := captureOutput(func() {
		err = Execute([]string{"sidekicknet", "version"}, BuildArgs{
			Version:   "1.2.0",
			BuildType: "test",
			Date:      "2026-01-01",
			Commit:    "abc123",
		})
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	assertContains(t, out, "sidekicknet 1.2.0-test")
	assertContains(t, out, "Build: 2026-01-01=abc123")
}

func TestExecuteDecodeHelp(t *testing.T) {
	var err error
	out := captureOutput(func() {
		err = Execute([]string{"sidekicknet", "decode", "help"}, BuildArgs{})
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	assertContains(t, out, "decode")
}
