package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"clipforge/internal/platformspec"
)

func main() {
	var jsonOut bool
	flag.BoolVar(&jsonOut, "json", false, "print the platform spec table as JSON")
	flag.Parse()

	specs := platformspec.All()

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(specs); err != nil {
			fmt.Fprintf(os.Stderr, "encode specs: %v\n", err)
			os.Exit(1)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tASPECT\tMAX DURATION\tCAPTION STYLE\tMAX HASHTAGS\tBRAND")
	for _, spec := range specs {
		fmt.Fprintf(w, "%s\t%s\t%ds\t%s\t%d\t%s\n",
			spec.Platform,
			spec.AspectRatio,
			spec.MaxDurationSecs,
			spec.CaptionStyle,
			spec.MaxHashtags,
			spec.BrandPosition,
		)
	}
	_ = w.Flush()
}
