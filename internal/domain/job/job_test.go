package job_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/sparkapply/internal/domain/job"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStaticCatalog(t *testing.T) {
	Convey("Given the built-in postings", t, func() {
		ctx := context.Background()
		catalog := job.NewStaticCatalog(job.Defaults())

		Convey("When fetching ranked jobs", func() {
			jobs, err := catalog.Ranked(ctx)

			Convey("Then they are ordered by match score", func() {
				So(err, ShouldBeNil)
				So(jobs, ShouldHaveLength, 3)
				So(jobs[0].ID, ShouldEqual, "1")
				So(jobs[1].ID, ShouldEqual, "3")
				So(jobs[2].ID, ShouldEqual, "2")
			})

			Convey("And mutating the result does not touch the catalog", func() {
				jobs[0].Title = "changed"
				again, _ := catalog.Ranked(ctx)
				So(again[0].Title, ShouldEqual, "Senior Frontend Developer")
			})
		})

		Convey("When looking up by id", func() {
			j, ok := catalog.Lookup("3")
			_, missing := catalog.Lookup("42")

			Convey("Then known ids resolve and unknown ones do not", func() {
				So(ok, ShouldBeTrue)
				So(j.Match, ShouldEqual, 92)
				So(missing, ShouldBeFalse)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := catalog.Ranked(cctx)

			Convey("Then an error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given postings with tied scores", t, func() {
		jobs := []job.Job{{ID: "a", Match: 50}, {ID: "b", Match: 90}, {ID: "c", Match: 50}}
		job.Rank(jobs)

		Convey("Then ties keep their input order", func() {
			So(jobs[0].ID, ShouldEqual, "b")
			So(jobs[1].ID, ShouldEqual, "a")
			So(jobs[2].ID, ShouldEqual, "c")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given posting lists", t, func() {
		Convey("When an id is blank", func() {
			err := job.Validate([]job.Job{{ID: "  "}})
			So(errors.Is(err, job.ErrMissingID), ShouldBeTrue)
		})

		Convey("When ids repeat", func() {
			err := job.Validate([]job.Job{{ID: "x"}, {ID: "x"}})
			So(errors.Is(err, job.ErrDuplicateID), ShouldBeTrue)
		})

		Convey("When a score is out of range", func() {
			err := job.Validate([]job.Job{{ID: "x", Match: 101}})
			So(errors.Is(err, job.ErrInvalidMatch), ShouldBeTrue)
		})

		Convey("When the defaults are checked", func() {
			So(job.Validate(job.Defaults()), ShouldBeNil)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a YAML catalog file", t, func() {
		ctx := context.Background()

		Convey("When the file is valid", func() {
			path := writeTemp(`
jobs:
  - id: "10"
    title: Platform Engineer
    company: Acme
    type: Remote
    match: 70
    requirements: ["Go", "Kubernetes"]
  - id: "11"
    title: Data Engineer
    company: Globex
    match: 85
`)
			defer func() { _ = os.Remove(path) }()

			catalog, err := job.LoadFile(ctx, path)

			Convey("Then postings are parsed and ranked", func() {
				So(err, ShouldBeNil)
				jobs, _ := catalog.Ranked(ctx)
				So(jobs, ShouldHaveLength, 2)
				So(jobs[0].ID, ShouldEqual, "11")
				So(jobs[1].Requirements, ShouldResemble, []string{"Go", "Kubernetes"})
				So(jobs[1].Mode, ShouldEqual, job.Remote)
			})
		})

		Convey("When the file has a duplicate id", func() {
			path := writeTemp(`
jobs:
  - id: "1"
  - id: "1"
`)
			defer func() { _ = os.Remove(path) }()

			_, err := job.LoadFile(ctx, path)

			Convey("Then loading fails", func() {
				So(errors.Is(err, job.ErrLoadCatalog), ShouldBeTrue)
				So(errors.Is(err, job.ErrDuplicateID), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := job.LoadFile(ctx, "/non/existent/catalog.yaml")
			So(errors.Is(err, job.ErrLoadCatalog), ShouldBeTrue)
		})
	})
}

func writeTemp(content string) string {
	f, err := os.CreateTemp("", "spark-catalog-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}
	return f.Name()
}
