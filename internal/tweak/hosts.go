package tweak

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

// Markers delimiting the ASX Hub section of the hosts file.
const (
	HostsMarkerStart = "# --- ASX Hub Telemetry Block Start ---"
	HostsMarkerEnd   = "# --- ASX Hub Telemetry Block End ---"
)

// HostsPart maps a list of hosts to 0.0.0.0 in a marked block of the hosts file.
type HostsPart struct {
	Hosts []string
}

// Status implements StatusPart.
func (p HostsPart) Status(_ context.Context, env *Env) (bool, error) {
	f, err := env.fs().Open(env.hostsFile())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open hosts file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == HostsMarkerStart {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// Apply implements Part.
func (p HostsPart) Apply(_ context.Context, env *Env, on bool) error {
	path := env.hostsFile()
	content, err := afero.ReadFile(env.fs(), path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read hosts file: %w", err)
		}
		if !on {
			return nil
		}
	}

	cleaned := stripHostsBlock(string(content))
	if on {
		cleaned = strings.TrimRight(cleaned, "\r\n") + "\n" + hostsBlock(p.Hosts)
	}
	if err := afero.WriteFile(env.fs(), path, []byte(cleaned), 0o644); err != nil {
		return fmt.Errorf("write hosts file: %w", err)
	}
	return nil
}

func hostsBlock(hosts []string) string {
	var block strings.Builder
	block.WriteString("\n")
	block.WriteString(HostsMarkerStart)
	block.WriteString("\n")
	for _, host := range hosts {
		fmt.Fprintf(&block, "0.0.0.0 %s\n", host)
	}
	block.WriteString(HostsMarkerEnd)
	block.WriteString("\n")
	return block.String()
}

// stripHostsBlock removes every marked block, leaving other lines untouched.
func stripHostsBlock(content string) string {
	var kept []string
	inBlock := false
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case HostsMarkerStart:
			inBlock = true
			continue
		case HostsMarkerEnd:
			inBlock = false
			continue
		}
		if !inBlock {
			kept = append(kept, line)
		}
	}
	out := strings.TrimRight(strings.Join(kept, "\n"), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
