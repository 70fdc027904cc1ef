package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterfetch"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupitersearch"
)

var refreshFlag = &cli.BoolFlag{
	Name:  "refresh",
	Usage: "bypass the cache and fetch from the portal",
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "print the result as JSON",
}

func unitArg(appCtx *cli.Context, pos int) (int, error) {
	value := appCtx.Args().Get(pos)
	code, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid unit code %q", value)
	}
	return code, nil
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func unitsCommand() *cli.Command {
	return &cli.Command{
		Name:  "units",
		Usage: "list the institutional units",
		Flags: []cli.Flag{refreshFlag, jsonFlag},
		Action: func(appCtx *cli.Context) error {
			rt, err := setup(appCtx)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(appCtx.Context)
			defer cancel()

			var units jupiterscrape.UnitTable
			if appCtx.Bool("refresh") {
				units, err = rt.Repository.RefreshUnits(ctx)
			} else {
				units, err = rt.Repository.Units(ctx)
			}
			if err != nil {
				return err
			}
			if appCtx.Bool("json") {
				return writeJSON(appCtx.App.Writer, units.Units())
			}

			tw := table(appCtx.App.Writer)
			fmt.Fprintln(tw, "CODE\tNAME\tCAMPUS")
			for _, unit := range units.Units() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", unit.Code, unit.Name, unit.Campus)
			}
			return tw.Flush()
		},
	}
}

func coursesCommand() *cli.Command {
	return &cli.Command{
		Name:      "courses",
		Usage:     "list the courses of a unit",
		ArgsUsage: "<unit-code>",
		Flags:     []cli.Flag{refreshFlag, jsonFlag},
		Action: func(appCtx *cli.Context) error {
			unitCode, err := unitArg(appCtx, 0)
			if err != nil {
				return err
			}
			rt, err := setup(appCtx)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(appCtx.Context)
			defer cancel()

			var courses []jupiterscrape.Course
			if appCtx.Bool("refresh") {
				courses, err = rt.Repository.RefreshCoursesForUnit(ctx, unitCode)
			} else {
				courses, err = rt.Repository.CoursesForUnit(ctx, unitCode)
			}
			if err != nil {
				return err
			}
			if appCtx.Bool("json") {
				return writeJSON(appCtx.App.Writer, courses)
			}

			tw := table(appCtx.App.Writer)
			fmt.Fprintln(tw, "CODE\tNAME\tPERIOD\tLECTURES")
			for _, course := range courses {
				n := 0
				for _, lectures := range course.Periods {
					n += len(lectures)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", course.Code, course.Name, course.PeriodIdeal, n)
			}
			return tw.Flush()
		},
	}
}

func curriculumCommand() *cli.Command {
	return &cli.Command{
		Name:      "curriculum",
		Usage:     "show the curriculum of a course",
		ArgsUsage: "<course-code> <unit-code>",
		Flags:     []cli.Flag{jsonFlag},
		Action: func(appCtx *cli.Context) error {
			courseCode := appCtx.Args().Get(0)
			unitCode, err := unitArg(appCtx, 1)
			if err != nil {
				return err
			}
			rt, err := setup(appCtx)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(appCtx.Context)
			defer cancel()

			course, err := rt.Repository.Curriculum(ctx, courseCode, unitCode)
			if err != nil {
				return err
			}
			if appCtx.Bool("json") {
				return writeJSON(appCtx.App.Writer, course)
			}

			fmt.Fprintf(appCtx.App.Writer, "%s %s (%s)\n", course.Code, course.Name, course.Unit)
			periods := make([]string, 0, len(course.Periods))
			for period := range course.Periods {
				periods = append(periods, period)
			}
			sort.Strings(periods)

			tw := table(appCtx.App.Writer)
			for _, period := range periods {
				fmt.Fprintf(tw, "%s\n", period)
				for _, info := range course.Periods[period] {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", info.Code, info.Type, strings.Join(info.ReqStrong, " "))
				}
			}
			return tw.Flush()
		},
	}
}

func lectureCommand() *cli.Command {
	return &cli.Command{
		Name:      "lecture",
		Usage:     "show a lecture with its classrooms",
		ArgsUsage: "<code>",
		Flags:     []cli.Flag{refreshFlag},
		Action: func(appCtx *cli.Context) error {
			code := appCtx.Args().First()
			if code == "" {
				return errors.New("lecture code required")
			}
			rt, err := setup(appCtx)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(appCtx.Context)
			defer cancel()

			var lecture jupiterscrape.Lecture
			if appCtx.Bool("refresh") {
				lecture, err = rt.Repository.RefreshLecture(ctx, code)
			} else {
				lecture, err = rt.Repository.Lecture(ctx, code)
			}
			if err != nil {
				return err
			}
			return writeJSON(appCtx.App.Writer, lecture)
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "rank the cached lectures against a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "remote", Usage: "search the portal first and cache the hits"},
			&cli.StringSliceFlag{Name: "units", Usage: "units searched with --remote, all when empty"},
			&cli.StringFlag{Name: "campus", Usage: "only lectures of this campus"},
			&cli.StringFlag{Name: "unit", Usage: "only lectures of this unit"},
			&cli.BoolFlag{Name: "available", Usage: "only lectures with an open classroom that has free seats"},
			&cli.StringFlag{Name: "day", Usage: "only lectures meeting on this day (seg, ter, ...)"},
			&cli.StringFlag{Name: "time", Usage: "only lectures meeting within HH:MM-HH:MM"},
			&cli.IntFlag{Name: "min-credits"},
			&cli.IntFlag{Name: "max-credits"},
			&cli.StringFlag{Name: "type", Usage: "classroom type: teorica, pratica or combinada"},
			&cli.IntFlag{Name: "limit", Usage: "maximum number of results, defaults to search.max_results"},
			jsonFlag,
		},
		Action: func(appCtx *cli.Context) error {
			query := strings.Join(appCtx.Args().Slice(), " ")
			filters, err := searchFilters(appCtx)
			if err != nil {
				return err
			}
			rt, err := setup(appCtx)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(appCtx.Context)
			defer cancel()

			if appCtx.Bool("remote") {
				hits, err := rt.Repository.SearchLectures(ctx, query, appCtx.StringSlice("units"))
				if err != nil {
					return err
				}
				rt.Logger.WithField("hits", len(hits)).Info("portal search finished")
			}

			limit := rt.Config.Search.MaxResults
			if appCtx.IsSet("limit") {
				limit = appCtx.Int("limit")
			}
			lectures := rt.Search.SearchLecturesAdvanced(ctx, query, filters, limit)
			if appCtx.Bool("json") {
				return writeJSON(appCtx.App.Writer, lectures)
			}

			now := rt.Clock.Now()
			tw := table(appCtx.App.Writer)
			fmt.Fprintln(tw, "CODE\tNAME\tUNIT\tCREDITS\tSCORE")
			for _, lecture := range lectures {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", lecture.Code, lecture.Name, lecture.Unit,
					lecture.TotalCredits(), jupitersearch.RelevanceScore(lecture, query, now))
			}
			return tw.Flush()
		},
	}
}

func searchFilters(appCtx *cli.Context) (jupitersearch.Filters, error) {
	filters := jupitersearch.Filters{
		Campus:        appCtx.String("campus"),
		Unit:          appCtx.String("unit"),
		OnlyAvailable: appCtx.Bool("available"),
		Day:           appCtx.String("day"),
		ClassroomType: jupiterscrape.ClassroomType(appCtx.String("type")),
	}
	if value := appCtx.String("time"); value != "" {
		r, err := jupitersearch.ParseTimeRange(value)
		if err != nil {
			return jupitersearch.Filters{}, err
		}
		filters.TimeRange = &r
	}
	if appCtx.IsSet("min-credits") {
		n := appCtx.Int("min-credits")
		filters.MinCredits = &n
	}
	if appCtx.IsSet("max-credits") {
		n := appCtx.Int("max-credits")
		filters.MaxCredits = &n
	}
	return filters, nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log into the student portal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", EnvVars: []string{"JUPITER_USER"}, Required: true},
			&cli.StringFlag{Name: "password", EnvVars: []string{"JUPITER_PASSWORD"}},
		},
		Action: func(appCtx *cli.Context) error {
			var auth jupiterfetch.Authenticator = jupiterfetch.PortalAuthenticator{}
			_, err := auth.Login(appCtx.Context, jupiterfetch.Credentials{
				User:     appCtx.String("user"),
				Password: appCtx.String("password"),
			})
			return err
		},
	}
}
