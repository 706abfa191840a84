package query

import (
	"math"
	"time"

	"github.com/fmidev/obsengine/cmn"
)

var compass8 = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

var compass16 = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

var compass32 = []string{
	"N", "NbE", "NNE", "NEbN", "NE", "NEbE", "ENE", "EbN",
	"E", "EbS", "ESE", "SEbE", "SE", "SEbS", "SSE", "SbE",
	"S", "SbW", "SSW", "SWbS", "SW", "SWbW", "WSW", "WbS",
	"W", "WbN", "WNW", "NWbW", "NW", "NWbN", "NNW", "NbW",
}

// WindCompass returns the compass-rose label for a wind direction in
// degrees [0, 360). A missing direction yields a missing value, per §4.6.
func WindCompass(param string, direction cmn.Value) cmn.Value {
	if direction.IsAbsent() {
		return cmn.Value{}
	}
	var labels []string
	switch param {
	case cmn.ParamWindCompass8:
		labels = compass8
	case cmn.ParamWindCompass16:
		labels = compass16
	case cmn.ParamWindCompass32:
		labels = compass32
	default:
		return cmn.Value{}
	}
	n := len(labels)
	sector := int(math.Mod(direction.Num+360/float64(n)/2, 360) / (360 / float64(n)))
	return cmn.StringValue(labels[sector%n])
}

// FeelsLike combines air temperature (C), relative humidity (%), and
// wind speed (m/s) via the Australian Bureau of Meteorology apparent
// temperature formula, a fixed empirical formula using vapour pressure
// derived from temperature and humidity. Missing if any input is
// missing, per §4.6.
func FeelsLike(temperature, humidity, windSpeed cmn.Value) cmn.Value {
	if temperature.IsAbsent() || humidity.IsAbsent() || windSpeed.IsAbsent() {
		return cmn.Value{}
	}
	t, rh, ws := temperature.Num, humidity.Num, windSpeed.Num
	vaporPressure := (rh / 100) * 6.105 * math.Exp(17.27*t/(237.7+t))
	at := t + 0.33*vaporPressure - 0.70*ws - 4.00
	return cmn.DoubleValue(at)
}

// SmartSymbol categorises present-weather code, total cloud cover
// (0-8 oktas), temperature, and solar elevation at (lat, lon, t) into a
// coarse symbol code. Missing if any input is missing, per §4.6.
//
// Symbol codes: 10+presentWeatherCode for any present-weather code of 20
// or above; otherwise 1 clear (0-1 oktas), 2 partly cloudy (2-5 oktas),
// 3 cloudy, each plus 100 at night (solar elevation below -2 degrees).
func SmartSymbol(presentWeather, cloudCover, temperature cmn.Value, lat, lon float64, t time.Time) cmn.Value {
	if presentWeather.IsAbsent() || cloudCover.IsAbsent() || temperature.IsAbsent() {
		return cmn.Value{}
	}
	pw := int(presentWeather.Int)
	if presentWeather.Kind == cmn.ValueDouble {
		pw = int(presentWeather.Num)
	}
	if pw >= 20 {
		return cmn.IntValue(int64(10 + pw))
	}

	elevation := SolarElevation(lat, lon, t)
	isNight := elevation < -2 // civil-twilight-ish cutoff

	okta := cloudCover.Num
	var symbol int64
	switch {
	case okta <= 1:
		symbol = 1 // clear
	case okta <= 5:
		symbol = 2 // partly cloudy
	default:
		symbol = 3 // cloudy
	}
	if isNight {
		symbol += 100 // night variant, same ordering
	}
	return cmn.IntValue(symbol)
}
