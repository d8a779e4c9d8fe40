// Package version хранит метаданные сборки клиента.
// Значения подставляются через -ldflags "-X cloudy-sword/internal/version.BuildDate=...".
package version

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
)

// Номер сборки - число дней от первого релиза клиента.
var buildEpoch = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

// Info - метаданные сборки для /version и стартового лога.
type Info struct {
	BuildID    int    `json:"buildId"`
	BuildDate  string `json:"buildDate,omitempty"`
	Commit     string `json:"commit,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Calculated bool   `json:"calculated"`
	Error      string `json:"error,omitempty"`
}

func buildID(date string) (int, error) {
	if date == "" {
		return 0, fmt.Errorf("BuildDate is empty")
	}

	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid BuildDate %q: %w", date, err)
	}
	if t.Before(buildEpoch) {
		return 0, fmt.Errorf("BuildDate %s is before epoch", date)
	}

	// Часы, а не AddDate: обе даты в UTC, переходов на летнее время нет.
	return int(t.Sub(buildEpoch).Hours() / 24), nil
}

// Current собирает Info из переменных сборки.
func Current() Info {
	info := Info{
		BuildDate: BuildDate,
		Commit:    BuildCommit,
		Branch:    BuildBranch,
	}

	id, err := buildID(BuildDate)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.BuildID = id
	info.Calculated = true
	return info
}

// Fields - то же самое в виде полей logrus.
func (i Info) Fields() logrus.Fields {
	return logrus.Fields{
		"build":  i.BuildID,
		"date":   coalesce(i.BuildDate, "unknown"),
		"commit": coalesce(i.Commit, "unknown"),
		"branch": coalesce(i.Branch, "unknown"),
	}
}

func (i Info) String() string {
	if !i.Calculated {
		return fmt.Sprintf("Build unknown (%s)", i.Error)
	}
	return fmt.Sprintf("Build %d (%s) commit[%s] branch[%s]",
		i.BuildID, i.BuildDate, coalesce(i.Commit, "unknown"), coalesce(i.Branch, "unknown"))
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
