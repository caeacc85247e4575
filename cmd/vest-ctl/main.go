package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"sort"
)

// ============================================================================
// vest-ctl - Command-line IPC client for vestbridge
// ============================================================================
// Injects synthetic hook events into a running vestbridge daemon, for
// testing haptic mappings without the game running.
//
// Usage:
//   vest-ctl send player_damage -magnitude 25 -bearing 180
//   vest-ctl send helicopter_rotor -intensity 3
//   vest-ctl categories
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/vestbridge.sock)
// ============================================================================

// Types below are duplicated from the vestbridge package so the tool stays
// a standalone binary.

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type HookEvent struct {
	Category  string  `json:"category"`
	Observer  *Vec3   `json:"observer,omitempty"`
	YawDeg    float64 `json:"yaw_deg,omitempty"`
	Target    *Vec3   `json:"target,omitempty"`
	Magnitude int     `json:"magnitude,omitempty"`
	Intensity float64 `json:"intensity,omitempty"`
}

type hookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// categories mirrors the bridge's fixed vocabulary.
var categories = []string{
	"player_damage", "player_death", "player_heal", "player_suppressed",
	"weapon_fire_rifle", "weapon_fire_mg", "weapon_fire_pistol",
	"weapon_fire_launcher", "weapon_reload", "grenade_throw",
	"vehicle_collision", "vehicle_damage", "vehicle_explosion",
	"helicopter_rotor", "explosion_nearby", "bullet_impact_near",
}

func main() {
	socketPath := "/tmp/vestbridge.sock"

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "send":
		if err := runSend(socketPath, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("ok")

	case "categories":
		sorted := append([]string(nil), categories...)
		sort.Strings(sorted)
		for _, c := range sorted {
			fmt.Println(c)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// runSend parses `send <category> [flags]` and delivers the event.
func runSend(socketPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("send requires a category (see 'vest-ctl categories')")
	}
	category := args[0]

	fs := flag.NewFlagSet("send", flag.ExitOnError)
	bearing := fs.Float64("bearing", -1, "Desired bearing in degrees (synthesizes observer/target geometry)")
	magnitude := fs.Int("magnitude", 0, "Damage-like magnitude")
	intensity := fs.Float64("intensity", 0, "Haptic intensity override (1-10, 0 = none)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	ev := HookEvent{
		Category:  category,
		Magnitude: *magnitude,
		Intensity: *intensity,
	}

	// A yaw-0 observer at the origin sees bearing b toward
	// (-sin b, 0, cos b); this lets callers think in bearings while the
	// bridge still exercises its own geometry path.
	if *bearing >= 0 {
		rad := *bearing * math.Pi / 180
		ev.Observer = &Vec3{}
		ev.Target = &Vec3{X: -math.Sin(rad), Z: math.Cos(rad)}
	}

	return sendHookEvent(socketPath, ev)
}

func sendHookEvent(socketPath string, ev HookEvent) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal hook event: %w", err)
	}
	payload, err := json.Marshal(hookEnvelope{Type: "hook_event", Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", payload); err != nil {
		return fmt.Errorf("send hook event: %w", err)
	}

	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if response.Status == "error" {
		return fmt.Errorf("bridge error: %s", response.Error)
	}

	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `vest-ctl - Inject test events into a running vestbridge daemon

Usage:
  vest-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/vestbridge.sock)

Commands:
  send <category> [flags]   Send one hook event
      -bearing <deg>        Desired bearing (0 front, 90 left, 180 back, 270 right)
      -magnitude <n>        Damage-like magnitude
      -intensity <1-10>     Haptic intensity override
  categories                List the event category vocabulary
  help, -h, --help          Show this help message

Examples:
  vest-ctl send player_damage -magnitude 25 -bearing 180
  vest-ctl send weapon_fire_rifle
  vest-ctl -socket /var/run/vestbridge.sock send vehicle_collision -intensity 7
`)
}
