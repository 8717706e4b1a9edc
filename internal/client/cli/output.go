package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func printFail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.RedString("✗")+" "+fmt.Sprintf(format, args...))
}

func highlight(s string) string {
	return color.YellowString(s)
}

func placeholder(s string) string {
	return color.New(color.FgRed, color.Italic).Sprint(s)
}
