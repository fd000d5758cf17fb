package weather

import (
	"fmt"
	"math"
)

type conditionRange struct {
	min, max    int
	description string
}

// conditionTable maps OpenWeather condition ids to short descriptions.
// Entries are checked in order; single ids precede the family range they belong to.
var conditionTable = []conditionRange{
	{200, 232, "Storm"},
	{300, 321, "Drizzle"},
	{500, 500, "Light Rain"},
	{511, 511, "Freezing Rain"},
	{520, 531, "Showers"},
	{500, 531, "Rain"},
	{600, 600, "Light Snow"},
	{611, 616, "Sleet"},
	{600, 622, "Snow"},
	{701, 701, "Mist"},
	{711, 711, "Smoke"},
	{721, 721, "Haze"},
	{741, 741, "Fog"},
	{751, 761, "Dust"},
	{762, 762, "Volcanic Ash"},
	{771, 771, "Squalls"},
	{781, 781, "Tornado"},
	{701, 781, "Fog"},
	{800, 800, "Clear"},
	{801, 801, "Mostly Clear"},
	{802, 803, "Partly Cloudy"},
	{804, 804, "Cloudy"},
	{900, 900, "Tornado"},
	{901, 901, "Tropical Storm"},
	{902, 902, "Hurricane"},
	{903, 903, "Cold"},
	{904, 904, "Hot"},
	{905, 905, "Windy"},
	{906, 906, "Hail"},
	{951, 951, "Calm"},
	{952, 956, "Breezy"},
	{957, 959, "Gale"},
	{960, 962, "Storm"},
}

// DescribeCondition returns a short description for an OpenWeather condition id.
func DescribeCondition(id int) string {
	for _, c := range conditionTable {
		if id >= c.min && id <= c.max {
			return c.description
		}
	}
	return fmt.Sprintf("Unknown (%d)", id)
}

// FormatTemperature renders a Celsius value in the requested units, rounded
// to whole degrees.
func FormatTemperature(celsius float64, units Units) string {
	if units == UnitsImperial {
		return fmt.Sprintf("%.0f°F", roundHalfUp(celsius*9/5+32))
	}
	return fmt.Sprintf("%.0f°C", roundHalfUp(celsius))
}

// ConvertTemperature converts a stored Celsius value to the requested units.
func ConvertTemperature(celsius float64, units Units) float64 {
	if units == UnitsImperial {
		return celsius*9/5 + 32
	}
	return celsius
}

func roundHalfUp(v float64) float64 {
	r := math.Floor(v + 0.5)
	if r == 0 {
		return 0
	}
	return r
}
