package services

import (
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/us"
)

// WorkdayService answers workday/holiday questions for the calendar grid
// and the reminder scheduler. The CN region follows the statutory holiday
// table, including make-up workdays on weekends; other regions use the
// business calendar, with plain Mon-Fri as the fallback.
type WorkdayService struct {
	region    string
	calendars map[string]*cal.BusinessCalendar
}

func NewWorkdayService(region string) *WorkdayService {
	s := &WorkdayService{
		region:    region,
		calendars: make(map[string]*cal.BusinessCalendar),
	}
	s.calendars["US"] = newCalendar("United States", us.Holidays...)
	s.calendars["JP"] = newCalendar("Japan", jp.Holidays...)
	return s
}

func newCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

// IsWorkday reports whether t is a working day in the configured region.
func (s *WorkdayService) IsWorkday(t time.Time) bool {
	switch s.region {
	case "CN":
		return isWorkdayChina(t)
	case "NONE":
		return !cal.IsWeekend(t)
	default:
		if c, ok := s.calendars[s.region]; ok {
			return c.IsWorkday(t)
		}
		return !cal.IsWeekend(t)
	}
}

// IsHoliday is the complement of IsWorkday.
func (s *WorkdayService) IsHoliday(t time.Time) bool {
	return !s.IsWorkday(t)
}

// isWorkdayChina checks the statutory holiday table first; it covers both
// holidays and the weekend make-up workdays around them.
func isWorkdayChina(t time.Time) bool {
	solar := calendar.NewSolarFromDate(t)
	holiday := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay())
	if holiday != nil {
		return holiday.IsWork()
	}
	return !cal.IsWeekend(t)
}
