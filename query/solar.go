package query

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"
)

// SolarElevation returns the sun's altitude in degrees above the horizon
// at (lat, lon) and time t, needed by smartsymbol to distinguish day
// from night (§4.6). The Julian day conversion is meeus's; the
// declination/hour-angle geometry follows the standard low-precision
// solar position algorithm (accurate to a fraction of a degree, ample
// for a day/night classifier).
func SolarElevation(lat, lon float64, t time.Time) float64 {
	u := t.UTC()
	jd := julian.CalendarGregorianToJD(u.Year(), int(u.Month()), dayFraction(u))

	n := jd - 2451545.0
	meanLon := unit.AngleFromDeg(math.Mod(280.460+0.9856474*n, 360)).Rad()
	meanAnom := unit.AngleFromDeg(math.Mod(357.528+0.9856003*n, 360)).Rad()
	eclipticLon := meanLon + (1.915*math.Pi/180)*math.Sin(meanAnom) + (0.020*math.Pi/180)*math.Sin(2*meanAnom)
	obliquity := unit.AngleFromDeg(23.439 - 0.0000004*n).Rad()

	decl := math.Asin(math.Sin(obliquity) * math.Sin(eclipticLon))

	gmst := math.Mod(6.697375+0.0657098242*n+float64(u.Hour())+float64(u.Minute())/60+float64(u.Second())/3600, 24)
	lst := gmst + lon/15
	hourAngle := unit.AngleFromDeg((lst * 15) - (280.460 + 0.9856474*n)).Rad()

	latRad := lat * math.Pi / 180
	sinElev := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(hourAngle)
	return math.Asin(clamp(sinElev, -1, 1)) * 180 / math.Pi
}

func dayFraction(t time.Time) float64 {
	return float64(t.Day()) + (float64(t.Hour())+float64(t.Minute())/60+float64(t.Second())/3600)/24
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
