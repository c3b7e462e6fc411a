package service

import (
	"strings"
	"testing"
)

func TestUnitContentUser(t *testing.T) {
	unit := UnitContent("/home/me/.local/bin/pedald", false)

	for _, want := range []string{
		"ExecStart=/home/me/.local/bin/pedald run",
		"WantedBy=graphical-session.target",
		"Restart=on-failure",
		"NoNewPrivileges=true",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("unit missing %q:\n%s", want, unit)
		}
	}
}

func TestUnitContentSystem(t *testing.T) {
	unit := UnitContent("/usr/local/bin/pedald", true)

	if !strings.Contains(unit, "WantedBy=multi-user.target") {
		t.Errorf("system unit should target multi-user:\n%s", unit)
	}
	if strings.Contains(unit, "graphical-session") {
		t.Errorf("system unit should not bind the graphical session:\n%s", unit)
	}
}

func TestSystemctlArgs(t *testing.T) {
	m := NewManager(nil)

	var got [][]string
	m.runCmd = func(args ...string) ([]byte, error) {
		got = append(got, args)
		return nil, nil
	}

	if err := m.systemctl(false, "enable", Name); err != nil {
		t.Fatalf("systemctl: %v", err)
	}
	if err := m.systemctl(true, "daemon-reload"); err != nil {
		t.Fatalf("systemctl: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("calls = %d, want 2", len(got))
	}
	if strings.Join(got[0], " ") != "--user enable pedald" {
		t.Errorf("user call = %v", got[0])
	}
	if strings.Join(got[1], " ") != "daemon-reload" {
		t.Errorf("system call = %v", got[1])
	}
}
