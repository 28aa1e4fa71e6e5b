package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"notty-go/internal/app"
	"notty-go/internal/notty"
)

var (
	errorTag   = color.New(color.FgWhite, color.BgRed)
	warningTag = color.New(color.FgBlack, color.BgYellow)
	successTag = color.New(color.FgBlack, color.BgGreen)
	infoTag    = color.New(color.FgBlack, color.BgBlue)
)

func printError(w io.Writer, msg string) {
	fmt.Fprintf(w, "[%s] %s\n", errorTag.Sprint(" ERROR "), color.RedString(msg))
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintf(w, "[%s] %s\n", warningTag.Sprint(" WARNING "), color.YellowString(msg))
}

func printSuccess(w io.Writer, msg string) {
	fmt.Fprintf(w, "[%s] %s\n", successTag.Sprint(" SUCCESS "), msg)
}

func printInfo(w io.Writer, msg string) {
	fmt.Fprintf(w, "[%s] %s\n", infoTag.Sprint(" INFO "), msg)
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s%s %s\n", color.CyanString(key), color.BlueString(":"), value)
}

func printBulletList(w io.Writer, title string, points []string) {
	fmt.Fprintf(w, "\n< %s >\n", strings.ToUpper(title))
	for _, p := range points {
		fmt.Fprintf(w, "  %s %s\n", color.YellowString("~>"), strings.TrimSpace(p))
	}
	if len(points) == 0 {
		fmt.Fprintf(w, "  %s\n", color.RedString("~> (blank)"))
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// errorMessage turns an error into the one-line message shown to the user.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, notty.ErrNotInitialized):
		return "No repository is initialized here."
	case errors.Is(err, notty.ErrRepositoryExists):
		return "Already exists."
	case errors.Is(err, notty.ErrNestedRepository):
		return "A repository is already initialized in a parent directory."
	case errors.Is(err, app.ErrKeysNotConfigured):
		return "Encryption keys are not configured. Run `notty config keys` first."
	}

	switch notty.KindOf(err) {
	case notty.KindNotFound:
		return "Save with given hash not found."
	case notty.KindMalformedIdentity:
		return fmt.Sprintf("Invalid hash: %v", err)
	}
	return err.Error()
}
