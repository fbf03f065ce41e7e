package clifmt

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	keyColor     = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

func Headerf(format string, args ...any) string {
	return headerColor.Sprint(fmt.Sprintf(format, args...))
}

func Key(s string) string { return keyColor.Sprint(s) }
func Dim(s string) string { return dimColor.Sprint(s) }
func Success(s string) string { return successColor.Sprint(s) }
func Warn(s string) string { return warnColor.Sprint(s) }
