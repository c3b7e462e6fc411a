// Package service installs and removes the daemon's systemd unit,
// either per user or system wide.
package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dshills/pedald/internal/logging"
)

// Name is the unit name without the .service suffix.
const Name = "pedald"

// Manager writes and controls the systemd unit.
type Manager struct {
	log *logging.Logger

	// runCmd is swapped in tests.
	runCmd func(args ...string) ([]byte, error)
}

// NewManager creates a service manager.
func NewManager(log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Null
	}
	return &Manager{
		log: log.WithComponent("service"),
		runCmd: func(args ...string) ([]byte, error) {
			return exec.Command("systemctl", args...).CombinedOutput()
		},
	}
}

// Install writes the unit file, reloads systemd, then enables and
// starts the unit. systemWide targets /etc/systemd/system and needs
// root; otherwise the user unit directory is used.
func (m *Manager) Install(systemWide bool) error {
	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve binary path: %w", err)
	}
	binary, err = filepath.EvalSymlinks(binary)
	if err != nil {
		return fmt.Errorf("resolve binary path: %w", err)
	}

	dir, err := unitDir(systemWide)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create unit directory: %w", err)
	}

	unitPath := filepath.Join(dir, Name+".service")
	if err := os.WriteFile(unitPath, []byte(UnitContent(binary, systemWide)), 0o644); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}
	m.log.Info("wrote %s", unitPath)

	if err := m.systemctl(systemWide, "daemon-reload"); err != nil {
		return err
	}
	if err := m.systemctl(systemWide, "enable", Name); err != nil {
		m.log.Warn("enable failed: %v", err)
	}
	if err := m.systemctl(systemWide, "start", Name); err != nil {
		return err
	}
	m.log.Info("service installed and started")
	return nil
}

// Uninstall stops and disables the unit and removes its file. Stop
// and disable failures are tolerated so a half-installed unit can
// still be cleaned up.
func (m *Manager) Uninstall(systemWide bool) error {
	if err := m.systemctl(systemWide, "stop", Name); err != nil {
		m.log.Warn("stop failed: %v", err)
	}
	if err := m.systemctl(systemWide, "disable", Name); err != nil {
		m.log.Warn("disable failed: %v", err)
	}

	dir, err := unitDir(systemWide)
	if err != nil {
		return err
	}
	unitPath := filepath.Join(dir, Name+".service")
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove unit file: %w", err)
	}
	m.log.Info("removed %s", unitPath)

	if err := m.systemctl(systemWide, "daemon-reload"); err != nil {
		return err
	}
	m.log.Info("service uninstalled")
	return nil
}

// UnitContent renders the unit file for the given binary path. The
// user unit binds to the graphical session so injection has a desktop
// to land in; the system unit starts with multi-user.
func UnitContent(binary string, systemWide bool) string {
	target := "graphical-session.target"
	if systemWide {
		target = "multi-user.target"
	}
	return fmt.Sprintf(`[Unit]
Description=Foot pedal action daemon
After=%[2]s
Wants=%[2]s

[Service]
Type=simple
ExecStart=%[1]s run
Restart=on-failure
RestartSec=5

NoNewPrivileges=true
PrivateTmp=true

[Install]
WantedBy=%[2]s
`, binary, target)
}

func (m *Manager) systemctl(systemWide bool, args ...string) error {
	if !systemWide {
		args = append([]string{"--user"}, args...)
	}
	out, err := m.runCmd(args...)
	if err != nil {
		return fmt.Errorf("systemctl %s: %w: %s", args[len(args)-1], err, out)
	}
	return nil
}

func unitDir(systemWide bool) (string, error) {
	if systemWide {
		return "/etc/systemd/system", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "systemd", "user"), nil
}
