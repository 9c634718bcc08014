package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"kyberd/crystal"
	"kyberd/reader"
)

var myBuild string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:          "kyberd",
		Short:        "Kyber crystal reader daemon",
		Version:      myBuild,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "cfg", "kyberd.cfg", "Config file")

	root.AddCommand(
		newRunCmd(&cfgFile),
		newEncodeCmd(),
		newDecodeCmd(),
		newWriteCmd(&cfgFile),
		newReadCmd(&cfgFile),
		newLockStatusCmd(&cfgFile),
	)
	return root
}

func newRunCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the crystal reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			slog.SetDefault(log)

			app, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer app.release()
			app.run()
			return nil
		},
	}
}

// crystalFlags are shared by encode and write.
type crystalFlags struct {
	color string
	name  string
}

func (f *crystalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.color, "color", "", "Crystal color as R,G,B (0-255 each)")
	fs.StringVar(&f.name, "name", "", "Preset name, up to 8 bytes")
}

func (f *crystalFlags) payload() (crystal.Payload, error) {
	r, g, b, err := parseColor(f.color)
	if err != nil {
		return crystal.Payload{}, err
	}
	return crystal.Payload{R: r, G: g, B: b, Name: f.name}, nil
}

func newEncodeCmd() *cobra.Command {
	var flags crystalFlags
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the tag pages for a crystal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := flags.payload()
			if err != nil {
				return err
			}
			raw, err := crystal.Encode(p)
			if err != nil {
				return err
			}
			printPages(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.MarkFlagRequired("color")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode 12 raw tag bytes (24 hex digits)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseBlock(args[0])
			if err != nil {
				return err
			}
			p := crystal.Decode(raw)
			fmt.Fprintf(cmd.OutOrStdout(), "color %d,%d,%d\nname  %s\n", p.R, p.G, p.B, p.Name)
			return nil
		},
	}
}

func newWriteCmd(cfgFile *string) *cobra.Command {
	var (
		flags crystalFlags
		owner string
		wait  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a crystal through the configured reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := flags.payload()
			if err != nil {
				return err
			}
			rec := crystal.Record{Payload: p, Owner: owner}
			return withReader(*cfgFile, func(dev reader.Device, log *slog.Logger) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Place the crystal on the reader")
				id, err := writeCrystal(dev, rec, wait, crystal.Writer{})
				if err != nil {
					return err
				}
				log.Info("Crystal written", "uid", id, "crystal", rec)
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %v to %s\n", rec, id)
				return nil
			})
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&owner, "owner", "", "Owner the crystal is attuned to, up to 12 bytes")
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "How long to wait for a tag")
	cmd.MarkFlagRequired("color")
	return cmd
}

func newReadCmd(cfgFile *string) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read a crystal through the configured reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReader(*cfgFile, func(dev reader.Device, _ *slog.Logger) error {
				id, err := openTag(dev, wait)
				if err != nil {
					return err
				}
				rec, err := crystal.ReadRecord(dev)
				if err != nil {
					return err
				}
				printRecord(cmd.OutOrStdout(), id, rec)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "How long to wait for a tag")
	return cmd
}

func newLockStatusCmd(cfgFile *string) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "lock-status",
		Short: "Show lock bytes and password protection of a crystal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReader(*cfgFile, func(dev reader.Device, _ *slog.Logger) error {
				if _, err := openTag(dev, wait); err != nil {
					return err
				}
				s, err := crystal.ReadLockStatus(dev)
				if err != nil {
					return err
				}
				printLockStatus(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "How long to wait for a tag")
	return cmd
}

// withReader opens the configured reader for one command.
func withReader(cfgFile string, fn func(reader.Device, *slog.Logger) error) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	dev, err := reader.New(cfg.Reader, component(log, "reader"))
	if err != nil {
		return fmt.Errorf("init reader: %w", err)
	}
	defer dev.Close()
	return fn(dev, log)
}

var errNoTag = errors.New("no tag presented")

const (
	tagPollTimeout = 500 * time.Millisecond
	tagRetry       = 100 * time.Millisecond
)

// openTag wakes the reader and waits up to wait for a tag.
func openTag(dev reader.Device, wait time.Duration) (reader.TagID, error) {
	if _, err := dev.Handshake(); err != nil {
		return reader.TagID{}, fmt.Errorf("reader handshake: %w", err)
	}
	if err := dev.Configure(); err != nil {
		return reader.TagID{}, fmt.Errorf("configure reader: %w", err)
	}

	deadline := time.Now().Add(wait)
	var lastErr error
	for {
		id, present, err := dev.ReadTag(tagPollTimeout)
		if err == nil && present {
			return id, nil
		}
		if err != nil {
			lastErr = err
		}
		if time.Now().After(deadline) {
			if lastErr != nil {
				return reader.TagID{}, fmt.Errorf("%w: %v", errNoTag, lastErr)
			}
			return reader.TagID{}, errNoTag
		}
		time.Sleep(tagRetry)
	}
}

// writeCrystal waits for a tag, writes rec to it and verifies the pages.
func writeCrystal(dev reader.Device, rec crystal.Record, wait time.Duration, w crystal.Writer) (reader.TagID, error) {
	rw, ok := dev.(crystal.ReadWriter)
	if !ok {
		return reader.TagID{}, errors.New("reader cannot write tags")
	}
	pages, err := rec.Pages()
	if err != nil {
		return reader.TagID{}, err
	}

	id, err := openTag(dev, wait)
	if err != nil {
		return id, err
	}
	if err := w.Write(rw, pages); err != nil {
		return id, fmt.Errorf("write %s: %w", id, err)
	}
	return id, nil
}

// parseColor parses "R,G,B" with each component 0-255.
func parseColor(s string) (r, g, b uint8, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("color %q: want R,G,B", s)
	}
	var c [3]uint8
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("color %q: %w", s, err)
		}
		c[i] = uint8(v)
	}
	return c[0], c[1], c[2], nil
}

// parseBlock parses 24 hex digits, ignoring spaces and colons.
func parseBlock(s string) ([crystal.BlockSize]byte, error) {
	var raw [crystal.BlockSize]byte
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return raw, fmt.Errorf("decode hex: %w", err)
	}
	if len(b) != crystal.BlockSize {
		return raw, fmt.Errorf("got %d bytes, want %d", len(b), crystal.BlockSize)
	}
	copy(raw[:], b)
	return raw, nil
}

func printPages(w io.Writer, raw [crystal.BlockSize]byte) {
	for i, page := range crystal.Pages(raw) {
		fmt.Fprintf(w, "page %d: % x\n", crystal.FirstPage+i, page[:])
	}
}

func printRecord(w io.Writer, id reader.TagID, rec crystal.Record) {
	fmt.Fprintf(w, "uid   %s\ncolor %d,%d,%d\nname  %s\nowner %s\n", id, rec.R, rec.G, rec.B, rec.Name, rec.Owner)
}

func printLockStatus(w io.Writer, s crystal.LockStatus) {
	for _, p := range []struct {
		label string
		page  int
		data  [crystal.PageSize]byte
	}{
		{"lock bytes", crystal.StaticLockPage, s.Static},
		{"capability", crystal.CapabilityPage, s.Capability},
		{"dynamic lock", crystal.DynamicLockPage, s.Dynamic},
		{"cfg0", crystal.Config0Page, s.Config0},
		{"cfg1", crystal.Config1Page, s.Config1},
	} {
		fmt.Fprintf(w, "page %2d %-12s % x\n", p.page, p.label, p.data[:])
	}

	if s.StaticLocked() {
		fmt.Fprintln(w, "static lock bits set")
	}
	if s.DynamicLocked() {
		fmt.Fprintln(w, "dynamic lock bits set")
	}
	fmt.Fprintf(w, "auth0 %d (%#02x)\n", s.Auth0(), s.Auth0())
	if s.WriteProtected() {
		fmt.Fprintf(w, "pages %d-%d need authentication to write\n", s.Auth0(), crystal.Config1Page)
	}
	if s.Writable() {
		fmt.Fprintln(w, "writable")
	}
}
