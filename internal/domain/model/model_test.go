package model_test

import (
	"testing"

	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestStatusTransitions(t *testing.T) {
	convey.Convey("Given the tracker columns", t, func() {
		convey.Convey("Then the pipeline moves forward only along allowed edges", func() {
			convey.So(model.StatusDraft.CanMove(model.StatusSent), convey.ShouldBeTrue)
			convey.So(model.StatusSent.CanMove(model.StatusInterview), convey.ShouldBeTrue)
			convey.So(model.StatusSent.CanMove(model.StatusRejected), convey.ShouldBeTrue)
			convey.So(model.StatusInterview.CanMove(model.StatusOffer), convey.ShouldBeTrue)
			convey.So(model.StatusInterview.CanMove(model.StatusRejected), convey.ShouldBeTrue)
		})

		convey.Convey("Then skipping or reversing is refused", func() {
			convey.So(model.StatusDraft.CanMove(model.StatusOffer), convey.ShouldBeFalse)
			convey.So(model.StatusOffer.CanMove(model.StatusSent), convey.ShouldBeFalse)
			convey.So(model.StatusRejected.CanMove(model.StatusInterview), convey.ShouldBeFalse)
			convey.So(model.StatusSent.CanMove(model.StatusSent), convey.ShouldBeFalse)
		})

		convey.Convey("Then every listed column is valid", func() {
			for _, s := range model.Statuses() {
				convey.So(s.Valid(), convey.ShouldBeTrue)
			}
			convey.So(model.Status("archived").Valid(), convey.ShouldBeFalse)
		})
	})
}
