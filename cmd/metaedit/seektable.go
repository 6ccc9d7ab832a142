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

// Seek point text format, one point per line:
//
//	PLACEHOLDER
//	SAMPLE_NUM OFFSET N_SAMPLES
func runImportSeekTable(args []string) error {
	fs := flag.NewFlagSet("import-seektable", flag.ExitOnError)
	in := fs.String("in", "", "Seek point text file to read.")
	fs.Parse(args)
	if fs.NArg() != 1 || *in == "" {
		return fmt.Errorf("usage: metaedit import-seektable -in PATH FILE")
	}
	path := fs.Arg(0)

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	st := meta.NewSeekTable()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "PLACEHOLDER" {
			st.Points = append(st.Points, meta.SeekPoint{SampleNum: meta.PlaceholderPoint})
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("metaedit: malformed seek point line %q", line)
		}
		sampleNum, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return err
		}
		offset, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return err
		}
		nsamples, err := strconv.ParseUint(fields[2], 10, 16)
		if err != nil {
			return err
		}
		st.Points = append(st.Points, meta.SeekPoint{SampleNum: sampleNum, Offset: offset, NSamples: uint16(nsamples)})
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if !st.IsLegal() {
		return fmt.Errorf("metaedit: %q does not describe a legal seek table", *in)
	}

	c := metadata.NewChain()
	if !c.Read(path, true) {
		return fmt.Errorf("metaedit: reading %q: %v", path, c.Status())
	}

	block := &meta.Block{Header: meta.Header{Type: meta.TypeSeekTable}, Body: st}
	it := c.Iterator()
	if findBlock(it, meta.TypeSeekTable) {
		if !it.SetBlock(block) {
			return fmt.Errorf("metaedit: replacing SEEKTABLE: %v", c.Status())
		}
	} else {
		it = c.Iterator()
		if !it.InsertBlockAfter(block) {
			return fmt.Errorf("metaedit: inserting SEEKTABLE: %v", c.Status())
		}
	}

	if !c.Write(true) {
		return fmt.Errorf("metaedit: writing %q: %v", path, c.Status())
	}
	return nil
}

func runExportSeekTable(args []string) error {
	fs := flag.NewFlagSet("export-seektable", flag.ExitOnError)
	out := fs.String("out", "", "Seek point text file to write.")
	fs.Parse(args)
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("usage: metaedit export-seektable -out PATH FILE")
	}
	path := fs.Arg(0)

	c := metadata.NewChain()
	if !c.Read(path, true) {
		return fmt.Errorf("metaedit: reading %q: %v", path, c.Status())
	}
	it := c.Iterator()
	if !findBlock(it, meta.TypeSeekTable) {
		return fmt.Errorf("metaedit: %q has no SEEKTABLE block", path)
	}
	st, ok := it.GetBlock().Body.(*meta.SeekTable)
	if !ok {
		return fmt.Errorf("metaedit: SEEKTABLE block has unexpected body type %T", it.GetBlock().Body)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range st.Points {
		if p.SampleNum == meta.PlaceholderPoint {
			fmt.Fprintln(w, "PLACEHOLDER")
			continue
		}
		fmt.Fprintf(w, "%d %d %d\n", p.SampleNum, p.Offset, p.NSamples)
	}
	return w.Flush()
}
