// metaedit is a verb-based tool for inspecting and mutating the metadata
// blocks of a FLAC file in place: list blocks, add or remove VORBIS_COMMENT
// tags, import or export a SEEKTABLE or CUESHEET, and merge PADDING runs.
//
// Usage: metaedit VERB [FLAGS] FILE
package main

import (
	"fmt"
	"log"
	"os"
)

// verbs maps a command name to its handler. Each handler parses its own flag
// set from the arguments following the verb.
var verbs = map[string]func(args []string) error{
	"list":             runList,
	"add-tag":          runAddTag,
	"remove-tag":       runRemoveTag,
	"import-seektable": runImportSeekTable,
	"export-seektable": runExportSeekTable,
	"import-cuesheet":  runImportCueSheet,
	"export-cuesheet":  runExportCueSheet,
	"merge-padding":    runMergePadding,
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: metaedit VERB [FLAGS] FILE")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Verbs:")
	fmt.Fprintln(os.Stderr, "  list              print the metadata blocks of FILE")
	fmt.Fprintln(os.Stderr, "  add-tag           insert a VORBIS_COMMENT tag (-tag FIELD=VALUE)")
	fmt.Fprintln(os.Stderr, "  remove-tag        remove all VORBIS_COMMENT tags (-field FIELD)")
	fmt.Fprintln(os.Stderr, "  import-seektable  replace the SEEKTABLE from a text file (-in PATH)")
	fmt.Fprintln(os.Stderr, "  export-seektable  write the SEEKTABLE as text (-out PATH)")
	fmt.Fprintln(os.Stderr, "  import-cuesheet   replace the CUESHEET from a text file (-in PATH)")
	fmt.Fprintln(os.Stderr, "  export-cuesheet   write the CUESHEET as text (-out PATH)")
	fmt.Fprintln(os.Stderr, "  merge-padding     coalesce consecutive PADDING blocks")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	verb, args := os.Args[1], os.Args[2:]
	run, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "metaedit: unknown verb %q\n\n", verb)
		usage()
		os.Exit(1)
	}
	if err := run(args); err != nil {
		log.Fatalln(err)
	}
}
