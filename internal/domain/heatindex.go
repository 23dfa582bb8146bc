package domain

// heatIndexDeadbandF is the threshold below which the Rothfusz regression is
// not defined. Below it the heat index equals the dry-bulb temperature.
const heatIndexDeadbandF = 80.0

// HeatIndex computes the apparent temperature in °C from dry-bulb
// temperature (°C) and relative humidity (%), using the NWS Rothfusz
// regression. The regression operates in Fahrenheit and only applies above
// 80 °F (≈26.7 °C); below that the input temperature is returned unchanged
// for any humidity.
func HeatIndex(tempC, humidity float64) float64 {
	tf := tempC*9/5 + 32
	if tf < heatIndexDeadbandF {
		return tempC
	}

	rh := humidity
	hi := -42.379 +
		2.04901523*tf +
		10.14333127*rh -
		0.22475541*tf*rh -
		6.83783e-3*tf*tf -
		5.481717e-2*rh*rh +
		1.22874e-3*tf*tf*rh +
		8.5282e-4*tf*rh*rh -
		1.99e-6*tf*tf*rh*rh

	return (hi - 32) * 5 / 9
}
