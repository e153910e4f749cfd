// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/govern"
	"github.com/jetsetilly/lockstep/hardware"
	"github.com/jetsetilly/lockstep/hardware/multicore"
	"github.com/jetsetilly/lockstep/hardware/peripherals/dsp"
	"github.com/jetsetilly/lockstep/hardware/peripherals/kerneltimer"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/inspect"
	"github.com/jetsetilly/lockstep/logger"
	"github.com/jetsetilly/lockstep/modalflag"
	"github.com/jetsetilly/lockstep/performance"
	"github.com/jetsetilly/lockstep/performance/limiter"
	"github.com/jetsetilly/lockstep/prefs"
	"github.com/jetsetilly/lockstep/savestate"
	"github.com/jetsetilly/lockstep/statsview"
	"github.com/jetsetilly/lockstep/terminal"
	"github.com/jetsetilly/lockstep/wavwriter"
)

// exit values
const (
	exitOK         = 0
	exitParseError = 10
	exitModeError  = 20
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	exitVal := launch(ctx, os.Stdout, os.Args[1:])
	stop()
	os.Exit(exitVal)
}

// launch parses the arguments and runs the selected mode. returns the exit
// value for the program
func launch(ctx context.Context, output io.Writer, args []string) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.AddSubModes("RUN", "STEP", "PERFORMANCE")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitOK
	case modalflag.ParseError:
		fmt.Fprintf(output, "* error: %v\n", err)
		return exitParseError
	}

	switch md.Mode() {
	case "RUN":
		err = run(ctx, output, md)
	case "STEP":
		err = step(ctx, output, md)
	case "PERFORMANCE":
		err = perform(ctx, output, md)
	}

	if err != nil {
		fmt.Fprintf(output, "* error in %s mode: %s\n", md, err)
		return exitModeError
	}

	return exitOK
}

// flags common to every mode
type common struct {
	prefs     *string
	log       *bool
	statsview *bool
}

func addCommon(md *modalflag.Modes) common {
	return common{
		prefs:     md.AddString("prefs", "", "preference overrides: 'key::value; key::value'"),
		log:       md.AddBool("log", false, "echo log to stdout"),
		statsview: md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsviewAvailable())),
	}
}

func statsviewAvailable() string {
	if statsview.Available() {
		return "available"
	}
	return "not available in this build"
}

// newSystem creates the system after applying the common flags. the state
// file is plumbed in if one is given
func newSystem(output io.Writer, md *modalflag.Modes, c common) (*hardware.System, error) {
	if *c.log {
		logger.SetEcho(output, false)
	} else {
		logger.SetEcho(nil, false)
	}

	if *c.statsview {
		statsview.Launch(output)
	}

	prefs.PushCommandLineStack(*c.prefs)
	defer func() {
		if unused := prefs.PopCommandLineStack(); unused != "" {
			logger.Logf(logger.Allow, "lockstep", "unused preferences: %s", unused)
		}
	}()

	prf, err := preferences.NewPreferences()
	if err != nil {
		return nil, err
	}

	env, err := environment.NewEnvironment(environment.MainEmulation, prf)
	if err != nil {
		return nil, err
	}

	sys, err := hardware.NewSystem(env, time.Now())
	if err != nil {
		return nil, err
	}

	switch len(md.RemainingArgs()) {
	case 0:
	case 1:
		st, err := savestate.Load(md.GetArg(0))
		if err != nil {
			return nil, err
		}
		if err := sys.Plumb(st); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("too many arguments for %s mode", md)
	}

	return sys, nil
}

func run(ctx context.Context, output io.Writer, md *modalflag.Modes) error {
	md.NewMode()

	c := addCommon(md)
	iterations := md.AddInt("iterations", 0, "number of driver iterations. zero to use duration")
	duration := md.AddDuration("duration", time.Second, "amount of emulated time to run for")
	limit := md.AddInt("limit", 0, "limit driver iterations per second. zero for no limit")
	wav := md.AddString("wav", "", "record DSP output to wav file")
	source := md.AddString("source", "", "DSP input (wav or mp3 file)")
	save := md.AddString("save", "", "save state to file on completion")
	dot := md.AddString("dot", "", "write scheduler graph to file on completion")
	camera := md.AddBool("camera", false, "capture from the camera continuously")
	kernelTimer := md.AddDuration("timer", 0, "create a periodic kernel timer with the interval")
	summary := md.AddBool("summary", false, "print scheduler summary on completion")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	sys, err := newSystem(output, md, c)
	if err != nil {
		return err
	}
	defer sys.Shutdown()

	if *source != "" {
		pcm, err := dsp.LoadPCM(nil, *source)
		if err != nil {
			return err
		}
		sys.DSP.AttachSource(pcm)
	}

	if *wav != "" {
		aw, err := wavwriter.New(*wav)
		if err != nil {
			return err
		}
		sys.DSP.AttachSink(aw)
		defer func() {
			if err := aw.EndMixing(); err != nil {
				fmt.Fprintf(output, "* %v\n", err)
			}
		}()
	}

	if *kernelTimer > 0 {
		h := sys.Timers.Create("frontend", kerneltimer.Sticky)
		if err := sys.Timers.Set(h, *kernelTimer, *kernelTimer); err != nil {
			return err
		}
	}

	var lim *limiter.Limiter
	if *limit > 0 {
		lim, err = limiter.NewLimiter(ctx, *limit)
		if err != nil {
			return err
		}
	}

	var catchUp int
	continueCheck := func(r multicore.Report) (govern.State, error) {
		if r.Mode == multicore.CatchUp {
			catchUp++
		}
		if *camera && !sys.Camera.Busy(0) {
			if err := sys.Camera.StartCapture(0); err != nil {
				return govern.Ending, err
			}
		}
		if lim != nil && !lim.Wait() {
			return govern.Ending, nil
		}
		return govern.Running, nil
	}

	start := sys.Scheduler.GlobalTicks()
	if *iterations > 0 {
		err = sys.RunForIterations(ctx, *iterations, continueCheck)
	} else {
		err = sys.RunForDuration(ctx, timing.CyclesFromDuration(*duration), continueCheck)
	}
	if err != nil {
		return err
	}

	// the cores were stepped by the goroutine started by Run()
	sys.Driver.Claim()

	cycles := sys.Scheduler.GlobalTicks() - start
	fmt.Fprintf(output, "%d cycles (%s emulated), %d catch-up iterations, %d DSP frames\n",
		cycles, timing.CyclesToDuration(cycles), catchUp, sys.DSP.Frames())

	if *summary {
		io.WriteString(output, sys.Scheduler.Summary())
	}

	if *save != "" {
		if err := savestate.Save(*save, sys.Snapshot()); err != nil {
			return err
		}
	}

	if *dot != "" {
		if err := inspect.DumpFile(*dot, sys.Scheduler.Snapshot()); err != nil {
			return err
		}
	}

	return nil
}

func step(ctx context.Context, output io.Writer, md *modalflag.Modes) error {
	md.NewMode()
	md.AdditionalHelp("one driver iteration for every key press. press 'q' to quit.")

	c := addCommon(md)

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	sys, err := newSystem(output, md, c)
	if err != nil {
		return err
	}
	defer sys.Shutdown()

	keys, err := terminal.OpenTTY()
	if err != nil {
		return err
	}
	defer keys.Close()

	return stepLoop(ctx, output, sys, keys)
}

// stepLoop runs one driver iteration for every key until the q key is pressed
// or the keys run out. the DSP goroutine runs alongside if required
func stepLoop(ctx context.Context, output io.Writer, sys *hardware.System, keys *terminal.Keys) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if sys.DSP.Threaded() {
		g.Go(func() error {
			return sys.DSP.Run(ctx)
		})
	}

	g.Go(func() error {
		defer cancel()
		sys.Driver.Claim()

		for ctx.Err() == nil {
			k, err := keys.Read()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			switch k {
			case 'q', 'Q':
				return nil
			case 'c', 'C':
				for _, c := range sys.Cores {
					fmt.Fprintln(output, c)
				}
			default:
				r, err := sys.Step()
				if err != nil {
					return err
				}
				fmt.Fprintln(output, r)
				io.WriteString(output, sys.Scheduler.Summary())
			}
		}
		return nil
	})

	return g.Wait()
}

func perform(ctx context.Context, output io.Writer, md *modalflag.Modes) error {
	md.NewMode()

	c := addCommon(md)
	duration := md.AddDuration("duration", 5*time.Second, "run duration (wall time)")
	leadtime := md.AddDuration("leadtime", time.Second, "time allowed for the emulation to settle before measuring")
	profile := md.AddString("profile", "NONE", "run performance check with profiling: CPU, MEM, TRACE, ALL (comma separated)")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	prf, err := performance.ParseProfileString(*profile)
	if err != nil {
		return err
	}

	sys, err := newSystem(output, md, c)
	if err != nil {
		return err
	}
	defer sys.Shutdown()

	return performance.Check(ctx, output, prf, sys, *duration, *leadtime)
}
