// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available serial ports",
	Long: `List the serial ports on this machine. USB adapters are shown with their
VID:PID and serial number when the OS reports them, which helps pick the
UniStation among several adapters.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

// portEntry is one listed port
type portEntry struct {
	name    string
	details string
}

// listPorts returns the available ports sorted by name. The detailed
// enumerator is tried first; serial.GetPortsList is the fallback.
func listPorts() ([]portEntry, error) {
	var entries []portEntry

	detailed, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.WithError(err).Debug("detailed port enumeration failed")
	}
	seen := make(map[string]struct{}, len(detailed))
	for _, p := range detailed {
		if p == nil || p.Name == "" {
			continue
		}
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		entries = append(entries, portEntry{name: p.Name, details: describePort(p)})
	}

	if len(entries) == 0 {
		names, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", err)
		}
		for _, name := range names {
			entries = append(entries, portEntry{name: name})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

func describePort(p *enumerator.PortDetails) string {
	if !p.IsUSB {
		return ""
	}
	s := fmt.Sprintf("USB %s:%s", p.VID, p.PID)
	if p.SerialNumber != "" {
		s += " serial " + p.SerialNumber
	}
	if p.Product != "" {
		s += " (" + p.Product + ")"
	}
	return s
}

func runPorts(cmd *cobra.Command, args []string) error {
	entries, err := listPorts()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, e := range entries {
		if e.details != "" {
			fmt.Printf("%-20s %s\n", e.name, e.details)
		} else {
			fmt.Println(e.name)
		}
	}
	return nil
}
