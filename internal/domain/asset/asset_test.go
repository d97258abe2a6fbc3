package asset_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/okian/hydromap/internal/domain/asset"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given backend rows", t, func() {
		Convey("When every field is present", func() {
			a, ok := asset.Normalize(asset.RawRecord{
				"id":             "PH-01",
				"name":           "Pump House 1",
				"type":           "Pump",
				"latitude":       17.4456,
				"longitude":      78.3516,
				"capacity":       "4.98L L",
				"specifications": "ATM Gate",
				"status":         "Running",
				"is_critical":    true,
			})

			Convey("Then fields should be mapped onto the canonical shape", func() {
				So(ok, ShouldBeTrue)
				So(a, ShouldResemble, asset.Asset{
					ID:         "PH-01",
					Name:       "Pump House 1",
					Type:       asset.TypePump,
					Position:   asset.Position{17.4456, 78.3516},
					Capacity:   "4.98L L",
					Specs:      "ATM Gate",
					Status:     asset.StatusRunning,
					IsCritical: true,
				})
			})
		})

		Convey("When optional fields are missing", func() {
			a, ok := asset.Normalize(asset.RawRecord{"id": "X", "name": "Bare"})

			Convey("Then defaults should apply", func() {
				So(ok, ShouldBeTrue)
				So(a.Capacity, ShouldEqual, asset.NotAvailable)
				So(a.Specs, ShouldEqual, asset.NotAvailable)
				So(a.Status, ShouldEqual, asset.StatusNormal)
				So(a.IsCritical, ShouldBeFalse)
				So(a.Position, ShouldResemble, asset.Position{0, 0})
			})
		})

		Convey("When optional fields are empty strings or null", func() {
			a, _ := asset.Normalize(asset.RawRecord{"id": "X", "capacity": "", "specifications": nil, "status": "  "})

			Convey("Then they should default like missing fields", func() {
				So(a.Capacity, ShouldEqual, asset.NotAvailable)
				So(a.Specs, ShouldEqual, asset.NotAvailable)
				So(a.Status, ShouldEqual, asset.StatusNormal)
			})
		})

		Convey("When values arrive with loose types", func() {
			a, ok := asset.Normalize(asset.RawRecord{
				"id":          json.Number("42"),
				"latitude":    "17.44",
				"longitude":   "east",
				"is_critical": "true",
				"capacity":    int64(5000),
			})

			Convey("Then they should be coerced without failing", func() {
				So(ok, ShouldBeTrue)
				So(a.ID, ShouldEqual, "42")
				So(a.Position.Lat(), ShouldEqual, 17.44)
				So(a.Position.Lng(), ShouldEqual, 0)
				So(a.IsCritical, ShouldBeTrue)
				So(a.Capacity, ShouldEqual, "5000")
			})
		})

		Convey("When numbers arrive in any integer width", func() {
			critical := []any{json.Number("1"), 1, int8(1), int16(1), int32(1), int64(1), uint(1), uint8(1), uint16(1), uint32(1), uint64(1), float32(1), 1.0}
			calm := []any{json.Number("0"), 0, int16(0), uint8(0), json.Number("x"), "0", "yes"}

			Convey("Then is_critical should follow the value", func() {
				for _, v := range critical {
					a, _ := asset.Normalize(asset.RawRecord{"id": "X", "is_critical": v})
					So(a.IsCritical, ShouldBeTrue)
				}
				for _, v := range calm {
					a, _ := asset.Normalize(asset.RawRecord{"id": "X", "is_critical": v})
					So(a.IsCritical, ShouldBeFalse)
				}
			})

			Convey("Then coordinates should keep their value", func() {
				a, _ := asset.Normalize(asset.RawRecord{"id": "X", "latitude": int16(17), "longitude": uint32(78)})
				So(a.Position, ShouldResemble, asset.Position{17, 78})
				b, _ := asset.Normalize(asset.RawRecord{"id": "X", "latitude": json.Number("17.5"), "longitude": int8(-3)})
				So(b.Position, ShouldResemble, asset.Position{17.5, -3})
			})
		})

		Convey("When a coordinate is not finite", func() {
			a, _ := asset.Normalize(asset.RawRecord{"id": "X", "latitude": math.NaN()})

			Convey("Then it should be zeroed", func() {
				So(a.Position.Lat(), ShouldEqual, 0)
			})
		})

		Convey("When the id is missing or blank", func() {
			_, ok1 := asset.Normalize(asset.RawRecord{"name": "Nameless"})
			_, ok2 := asset.Normalize(asset.RawRecord{"id": " "})

			Convey("Then the row should be rejected", func() {
				So(ok1, ShouldBeFalse)
				So(ok2, ShouldBeFalse)
			})
		})
	})
}

func TestClassifyFixture(t *testing.T) {
	Convey("Given fixture kind labels", t, func() {
		So(asset.ClassifyFixture("Hostel Sump"), ShouldEqual, asset.TypeSump)
		So(asset.ClassifyFixture("Primary Hub"), ShouldEqual, asset.TypePump)
		So(asset.ClassifyFixture("Booster Pump"), ShouldEqual, asset.TypePump)
		So(asset.ClassifyFixture("OHT Pair"), ShouldEqual, asset.TypeTank)
		So(asset.ClassifyFixture("IIIT Bore"), ShouldEqual, asset.TypeBore)
		So(asset.ClassifyFixture(""), ShouldEqual, asset.TypeBore)
	})
}

func TestTypesAndStatus(t *testing.T) {
	Convey("Given type and status helpers", t, func() {
		So(asset.ParseType(" Tank "), ShouldEqual, asset.TypeTank)
		So(asset.ParseType("Tank").Known(), ShouldBeTrue)
		So(asset.ParseType("valve").Known(), ShouldBeFalse)
		So(asset.IsCriticalStatus(asset.StatusWarning), ShouldBeTrue)
		So(asset.IsCriticalStatus(asset.StatusCritical), ShouldBeTrue)
		So(asset.IsCriticalStatus(asset.StatusRunning), ShouldBeFalse)
	})
}
