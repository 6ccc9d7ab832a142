package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nazgoflac/flac/meta"
	"github.com/nazgoflac/flac/metadata"
)

// Cue sheet text format:
//
//	MCN <media catalog number, or - for empty>
//	LEADIN <n lead-in samples>
//	CD <true|false>
//	TRACK <num> <offset> <ISRC or -> <AUDIO|DATA> <PREEMPH|NOPREEMPH>
//	INDEX <num> <offset>
//	...
//
// Each TRACK line starts a new track; INDEX lines that follow belong to it
// until the next TRACK line or EOF.
func runImportCueSheet(args []string) error {
	fs := flag.NewFlagSet("import-cuesheet", flag.ExitOnError)
	in := fs.String("in", "", "Cue sheet text file to read.")
	fs.Parse(args)
	if fs.NArg() != 1 || *in == "" {
		return fmt.Errorf("usage: metaedit import-cuesheet -in PATH FILE")
	}
	path := fs.Arg(0)

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	cs := meta.NewCueSheet()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "MCN":
			if len(fields) < 2 || fields[1] == "-" {
				cs.MCN = ""
			} else {
				cs.MCN = fields[1]
			}
		case "LEADIN":
			if len(fields) != 2 {
				return fmt.Errorf("metaedit: malformed LEADIN line %q", line)
			}
			n, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return err
			}
			cs.NLeadInSamples = n
		case "CD":
			if len(fields) != 2 {
				return fmt.Errorf("metaedit: malformed CD line %q", line)
			}
			cs.IsCompactDisc = fields[1] == "true"
		case "TRACK":
			if len(fields) != 6 {
				return fmt.Errorf("metaedit: malformed TRACK line %q", line)
			}
			num, err := strconv.ParseUint(fields[1], 10, 8)
			if err != nil {
				return err
			}
			offset, err := strconv.ParseUint(fields[2], 10, 64)
			if err != nil {
				return err
			}
			isrc := fields[3]
			if isrc == "-" {
				isrc = ""
			}
			cs.Tracks = append(cs.Tracks, meta.CueSheetTrack{
				Offset:         offset,
				Num:            uint8(num),
				ISRC:           isrc,
				IsAudio:        fields[4] != "DATA",
				HasPreEmphasis: fields[5] == "PREEMPH",
			})
		case "INDEX":
			if len(cs.Tracks) == 0 {
				return fmt.Errorf("metaedit: INDEX line %q precedes any TRACK", line)
			}
			if len(fields) != 3 {
				return fmt.Errorf("metaedit: malformed INDEX line %q", line)
			}
			num, err := strconv.ParseUint(fields[1], 10, 8)
			if err != nil {
				return err
			}
			offset, err := strconv.ParseUint(fields[2], 10, 64)
			if err != nil {
				return err
			}
			cur := &cs.Tracks[len(cs.Tracks)-1]
			cur.Indicies = append(cur.Indicies, meta.CueSheetTrackIndex{Offset: offset, Num: uint8(num)})
		default:
			return fmt.Errorf("metaedit: unrecognized cue sheet line %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if !cs.IsLegal() {
		return fmt.Errorf("metaedit: %q does not describe a legal cue sheet", *in)
	}

	c := metadata.NewChain()
	if !c.Read(path, true) {
		return fmt.Errorf("metaedit: reading %q: %v", path, c.Status())
	}

	block := &meta.Block{Header: meta.Header{Type: meta.TypeCueSheet}, Body: cs}
	it := c.Iterator()
	if findBlock(it, meta.TypeCueSheet) {
		if !it.SetBlock(block) {
			return fmt.Errorf("metaedit: replacing CUESHEET: %v", c.Status())
		}
	} else {
		it = c.Iterator()
		if !it.InsertBlockAfter(block) {
			return fmt.Errorf("metaedit: inserting CUESHEET: %v", c.Status())
		}
	}

	if !c.Write(true) {
		return fmt.Errorf("metaedit: writing %q: %v", path, c.Status())
	}
	return nil
}

func runExportCueSheet(args []string) error {
	fs := flag.NewFlagSet("export-cuesheet", flag.ExitOnError)
	out := fs.String("out", "", "Cue sheet text file to write.")
	fs.Parse(args)
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("usage: metaedit export-cuesheet -out PATH FILE")
	}
	path := fs.Arg(0)

	c := metadata.NewChain()
	if !c.Read(path, true) {
		return fmt.Errorf("metaedit: reading %q: %v", path, c.Status())
	}
	it := c.Iterator()
	if !findBlock(it, meta.TypeCueSheet) {
		return fmt.Errorf("metaedit: %q has no CUESHEET block", path)
	}
	cs, ok := it.GetBlock().Body.(*meta.CueSheet)
	if !ok {
		return fmt.Errorf("metaedit: CUESHEET block has unexpected body type %T", it.GetBlock().Body)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	mcn := cs.MCN
	if mcn == "" {
		mcn = "-"
	}
	fmt.Fprintf(w, "MCN %s\n", mcn)
	fmt.Fprintf(w, "LEADIN %d\n", cs.NLeadInSamples)
	fmt.Fprintf(w, "CD %t\n", cs.IsCompactDisc)
	for _, t := range cs.Tracks {
		isrc := t.ISRC
		if isrc == "" {
			isrc = "-"
		}
		audio := "DATA"
		if t.IsAudio {
			audio = "AUDIO"
		}
		preemph := "NOPREEMPH"
		if t.HasPreEmphasis {
			preemph = "PREEMPH"
		}
		fmt.Fprintf(w, "TRACK %d %d %s %s %s\n", t.Num, t.Offset, isrc, audio, preemph)
		for _, idx := range t.Indicies {
			fmt.Fprintf(w, "INDEX %d %d\n", idx.Num, idx.Offset)
		}
	}
	return w.Flush()
}
