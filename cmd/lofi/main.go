package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/lofi"
	"github.com/urfave/cli/v2"
)

const defaultDB = "lofi.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newLofi(c *cli.Context) (*lofi.Lofi, error) {
	config := lofi.Config{
		Colors:         c.Int("colors"),
		Sample:         c.Int("sample"),
		Dither:         !c.Bool("no-dither"),
		Palette:        c.String("palette"),
		HoldFactor:     c.Int("hold"),
		AmplitudeSteps: c.Int("steps"),
	}
	return lofi.New(config, newLogger(c))
}

func main() {
	app := cli.NewApp()

	app.Name = "lofi"
	app.Usage = "Low color, low sample rate degradation of images and audio"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	defaults := lofi.DefaultConfig()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"LOFI_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to digest database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.IntFlag{
			Name:    "colors",
			EnvVars: []string{"LOFI_COLORS"},
			Value:   defaults.Colors,
			Usage:   "maximum colors per frame",
		},
		&cli.IntFlag{
			Name:  "sample",
			Value: defaults.Sample,
			Usage: "only count every Nth pixel when building a palette",
		},
		&cli.BoolFlag{
			Name:  "no-dither",
			Usage: "disable error diffusion",
		},
		&cli.StringFlag{
			Name:  "palette",
			Value: defaults.Palette,
			Usage: fmt.Sprintf("palette aggregation, %q or %q", lofi.PaletteMean, lofi.PaletteMode),
		},
		&cli.IntFlag{
			Name:    "hold",
			EnvVars: []string{"LOFI_HOLD"},
			Value:   defaults.HoldFactor,
			Usage:   "number of audio samples sharing one value",
		},
		&cli.IntFlag{
			Name:    "steps",
			EnvVars: []string{"LOFI_STEPS"},
			Value:   defaults.AmplitudeSteps,
			Usage:   "amplitude levels either side of zero",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Degrade images and audio",
			Description: "Converts a file, or every supported file beneath a directory.",
			ArgsUsage:   "PATH",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   cwd,
					Usage:   "output directory",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				l, err := newLofi(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := l.Convert(c.Args().First(), c.String("output")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "regress",
			Usage: "Manage regression digests",
			Subcommands: []*cli.Command{
				{
					Name:      "add",
					Usage:     "Record digests of degraded files",
					ArgsUsage: "FILE...",
					Action: func(c *cli.Context) error {
						if c.NArg() < 1 {
							cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
						}

						l, err := newLofi(c)
						if err != nil {
							return cli.NewExitError(err, 1)
						}

						db, err := lofi.NewDigestDB(c.String("db"))
						if err != nil {
							return cli.NewExitError(err, 1)
						}
						defer db.Close()

						for _, file := range c.Args().Slice() {
							if err := l.Record(db, file); err != nil {
								return cli.NewExitError(err, 1)
							}
						}

						return nil
					},
				},
				{
					Name:      "remove",
					Usage:     "Forget recorded digests",
					ArgsUsage: "FILE...",
					Action: func(c *cli.Context) error {
						if c.NArg() < 1 {
							cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
						}

						db, err := lofi.NewDigestDB(c.String("db"))
						if err != nil {
							return cli.NewExitError(err, 1)
						}
						defer db.Close()

						for _, file := range c.Args().Slice() {
							path, err := filepath.Abs(file)
							if err != nil {
								return cli.NewExitError(err, 1)
							}
							if err := db.Remove(path); err != nil {
								return cli.NewExitError(err, 1)
							}
						}

						return nil
					},
				},
				{
					Name:  "verify",
					Usage: "Check recorded digests still reproduce",
					Action: func(c *cli.Context) error {
						l, err := newLofi(c)
						if err != nil {
							return cli.NewExitError(err, 1)
						}

						db, err := lofi.NewDigestDB(c.String("db"))
						if err != nil {
							return cli.NewExitError(err, 1)
						}
						defer db.Close()

						mismatches, err := l.Verify(db)
						if err != nil {
							return cli.NewExitError(err, 1)
						}

						for _, m := range mismatches {
							fmt.Fprintln(os.Stderr, m)
						}
						if len(mismatches) > 0 {
							return cli.NewExitError(fmt.Sprintf("%d digest(s) failed", len(mismatches)), 1)
						}

						return nil
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
