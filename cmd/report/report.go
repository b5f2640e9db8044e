package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/certify/internal/progress"
)

var header = []string{"Category", "Scores", "Complete", "Tally", "Auditor", "Status"}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// percent returns done/total as a one-decimal percentage.
func percent(done, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return decimal.NewFromInt(int64(done)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		StringFixed(1) + "%"
}

// status labels a category's position in the certification chain.
func status(c progress.Category) string {
	switch {
	case c.AuditorCertified:
		return "CERTIFIED"
	case c.ReadyForFinalCertification:
		return "READY FOR AUDITOR"
	case c.TallyCertifications.Complete():
		return "AWAITING SCORES"
	case c.ScoreStatus.Total > 0:
		return "AWAITING TALLY"
	default:
		return "NO SCORES"
	}
}

func rows(contest *progress.Contest) [][]string {
	out := make([][]string, 0, len(contest.Categories))
	for _, c := range contest.Categories {
		certified := c.ScoreStatus.Total - c.ScoreStatus.Uncertified
		auditor := "pending"
		if c.AuditorCertified {
			auditor = "signed"
		}
		out = append(out, []string{
			c.CategoryName,
			strconv.Itoa(certified) + "/" + strconv.Itoa(c.ScoreStatus.Total),
			percent(certified, c.ScoreStatus.Total),
			strconv.Itoa(c.TallyCertifications.Completed) + "/" + strconv.Itoa(c.TallyCertifications.Required),
			auditor,
			status(c),
		})
	}
	return out
}

func colorize(s string) string {
	switch s {
	case "CERTIFIED", "signed":
		return green(s)
	case "READY FOR AUDITOR":
		return yellow(s)
	case "pending":
		return s
	default:
		return red(s)
	}
}

func render(w io.Writer, contest *progress.Contest) {
	fmt.Fprintf(w, "Contest %s: %d/%d categories certified\n",
		contest.ContestID, contest.CertifiedCategories, contest.TotalCategories)

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	for _, row := range rows(contest) {
		row[4] = colorize(row[4])
		row[5] = colorize(row[5])
		table.Append(row)
	}
	table.Render()

	switch {
	case contest.BoardCertified:
		fmt.Fprintln(w, green("board certified"))
	case contest.ReadyForBoard:
		fmt.Fprintln(w, yellow("ready for board certification"))
	}
}
