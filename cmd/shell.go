// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/session"
)

var shellCmd = &cobra.Command{
	Use:   "shell [command...]",
	Short: "Interactive shell for the running driver",
	Long: `Start the driver and open an interactive shell.

Commands:
  status               scheduler state, confirmation and counters
  regs                 last value of every register
  config               pending configuration
  set reg.field=value  change fields (e.g. set hs.isink=5 vds.vds_level=12)
  load <file>          replace the configuration from a JSON file
  confirm              write and verify the configuration
  sleep | wake         request a power state change
  enable | disable     drive EN_GATE
  reset                restart the driver from INIT
  events               print pending pass results
  inject <reg> <bits>  latch fault bits (simulator only)

With arguments, the arguments are run as one command and the shell exits.`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

const shellTimeout = 5 * time.Second

// shellDo runs fn on the driver and reports its error in the shell
func shellDo(c *ishell.Context, s *session.Session, fn func(d *drv8305.Driver) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shellTimeout)
	defer cancel()
	if err := s.Do(ctx, fn); err != nil {
		c.Err(err)
	}
}

func shellCommands(s *session.Session) []*ishell.Cmd {
	return []*ishell.Cmd{
		{
			Name: "status",
			Help: "scheduler state and counters",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error {
					c.Println(drv8305.FormatState(d))
					st := d.Stats()
					c.Printf("transfers=%d transport_errors=%d power_errors=%d fault_frames=%d echo_mismatches=%d\n",
						st.Transfers, st.TransportErrors, st.PowerErrors, st.FaultFrames, st.EchoMismatches)
					c.Printf("status_passes=%d control_passes=%d dropped_events=%d\n", st.StatusPasses, st.ControlPasses, s.Dropped())
					if err := d.LastError(); err != nil {
						c.Printf("last error: %v\n", err)
					}
					if asserted, err := d.FaultAsserted(); err == nil {
						c.Printf("nFAULT asserted: %v\n", asserted)
					}
					return nil
				})
			},
		},
		{
			Name:    "regs",
			Aliases: []string{"registers"},
			Help:    "last value of every register",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error {
					flags := d.ConfirmationFlags()
					for _, slot := range d.Registers() {
						line := drv8305.FormatRegister(slot)
						if slot.Address.IsControl() && !flags.Get(slot.Address) {
							line = strings.Replace(line, "\n", " [UNCONFIRMED]\n", 1)
						}
						c.Print(line)
					}
					return nil
				})
			},
		},
		{
			Name: "config",
			Help: "pending configuration",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error {
					c.Print(drv8305.FormatConfiguration(d.Configuration()))
					return nil
				})
			},
		},
		{
			Name: "set",
			Help: "reg.field=value... (takes effect on confirm)",
			Func: func(c *ishell.Context) {
				if len(c.Args) == 0 {
					c.Err(fmt.Errorf("reg.field=value required"))
					return
				}
				var assignments []drv8305.Assignment
				for _, arg := range c.Args {
					a, err := drv8305.ParseAssignment(arg)
					if err != nil {
						c.Err(err)
						return
					}
					assignments = append(assignments, a)
				}
				shellDo(c, s, func(d *drv8305.Driver) error {
					cfg := d.Configuration()
					for _, a := range assignments {
						if err := a.Apply(&cfg); err != nil {
							return err
						}
					}
					return d.SetConfiguration(cfg)
				})
			},
		},
		{
			Name: "load",
			Help: "<file> replace the configuration",
			Func: func(c *ishell.Context) {
				if len(c.Args) != 1 {
					c.Err(fmt.Errorf("file required"))
					return
				}
				cfg, err := loadConfiguration(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				shellDo(c, s, func(d *drv8305.Driver) error {
					return d.SetConfiguration(cfg)
				})
			},
		},
		{
			Name: "confirm",
			Help: "write and verify the configuration",
			Func: func(c *ishell.Context) {
				ctx, cancel := context.WithTimeout(context.Background(), shellTimeout)
				defer cancel()
				flags, err := s.WaitControlPass(ctx)
				if err != nil {
					c.Err(err)
					return
				}
				for _, r := range drv8305.ControlRegisters {
					c.Printf("%-17s %v\n", r, flags.Get(r))
				}
			},
		},
		{
			Name: "sleep",
			Help: "put the device to sleep",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error { d.RequestSleep(); return nil })
			},
		},
		{
			Name: "wake",
			Help: "wake the device",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error { d.RequestWake(); return nil })
			},
		},
		{
			Name: "enable",
			Help: "drive EN_GATE high",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error { return d.Enable() })
			},
		},
		{
			Name: "disable",
			Help: "drive EN_GATE low",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error { return d.Disable() })
			},
		},
		{
			Name: "reset",
			Help: "restart the driver from INIT",
			Func: func(c *ishell.Context) {
				shellDo(c, s, func(d *drv8305.Driver) error { return d.Reset() })
			},
		},
		{
			Name: "events",
			Help: "print pending pass results",
			Func: func(c *ishell.Context) {
				for {
					select {
					case e := <-s.Events():
						c.Printf("%s %-7s %s\n", e.Time.Format("15:04:05.000"), e.Kind, e.Text)
					default:
						return
					}
				}
			},
		},
		{
			Name: "inject",
			Help: "<reg> <bits> latch status bits (simulator only)",
			Func: func(c *ishell.Context) {
				if simDevice == nil {
					c.Err(fmt.Errorf("inject needs --sim"))
					return
				}
				if len(c.Args) != 2 {
					c.Err(fmt.Errorf("register and bits required"))
					return
				}
				r, err := drv8305.ParseRegister(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				bits, err := strconv.ParseUint(c.Args[1], 0, 16)
				if err != nil {
					c.Err(fmt.Errorf("invalid bits: %w", err))
					return
				}
				if err := simDevice.InjectFault(r, uint16(bits)); err != nil {
					c.Err(err)
				}
			},
		},
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	rd, err := startDriver(drv8305.Handlers{})
	if err != nil {
		return err
	}
	defer rd.stop()

	sh := ishell.New()
	sh.SetPrompt(fmt.Sprintf("[%s] > ", deviceName))
	for _, c := range shellCommands(rd.sess) {
		sh.AddCmd(c)
	}

	if len(args) > 0 {
		return sh.Process(args...)
	}

	sh.Printf("Gatewatch - Shell\nConnection: %s\n", rd.connInfo)
	sh.Run()
	sh.Close()
	return nil
}
