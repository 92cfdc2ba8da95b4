package derate

// Ampacity and correction tables from NEC 310.16, 310.15(B)(1) and
// 310.15(C)(1). Values are embedded so runs are reproducible against a
// fixed code edition; confidence labels never feed into any lookup.

// ratingIdx maps a conductor temperature rating to its table column.
func ratingIdx(rating int) (int, bool) {
	switch rating {
	case 60:
		return 0, true
	case 75:
		return 1, true
	case 90:
		return 2, true
	}
	return 0, false
}

// insulationRating is the temperature rating each recognised insulation
// type is held to. Wet-location conservative where the type is dual-rated.
var insulationRating = map[string]int{
	"TW": 60, "UF": 60,
	"THW": 75, "THWN": 75, "USE": 75, "XHHW": 75,
	"THHN": 90, "THWN-2": 90, "XHHW-2": 90, "USE-2": 90,
}

// ampacity is NEC 310.16 (not more than three current-carrying conductors
// in raceway, 30 °C ambient), columns 60/75/90 °C.
var ampacity = map[string]map[string][3]float64{
	"Cu": {
		"14":  {15, 20, 25},
		"12":  {20, 25, 30},
		"10":  {30, 35, 40},
		"8":   {40, 50, 55},
		"6":   {55, 65, 75},
		"4":   {70, 85, 95},
		"3":   {85, 100, 115},
		"2":   {95, 115, 130},
		"1":   {110, 130, 145},
		"1/0": {125, 150, 170},
		"2/0": {145, 175, 195},
		"3/0": {165, 200, 225},
		"4/0": {195, 230, 260},
		"250": {215, 255, 290},
		"300": {240, 285, 320},
		"350": {260, 310, 350},
		"400": {280, 335, 380},
		"500": {320, 380, 430},
	},
	"Al": {
		"12":  {15, 20, 25},
		"10":  {25, 30, 35},
		"8":   {35, 40, 45},
		"6":   {40, 50, 55},
		"4":   {55, 65, 75},
		"3":   {65, 75, 85},
		"2":   {75, 90, 100},
		"1":   {85, 100, 115},
		"1/0": {100, 120, 135},
		"2/0": {115, 135, 150},
		"3/0": {130, 155, 175},
		"4/0": {150, 180, 205},
		"250": {170, 205, 230},
		"300": {190, 230, 255},
		"350": {210, 250, 280},
		"400": {225, 270, 305},
		"500": {260, 310, 350},
	},
}

// smallConductorCap is the NEC 240.4(D) overcurrent ceiling for small
// conductors; it caps the usable base ampacity regardless of the table
// column.
var smallConductorCap = map[string]map[string]float64{
	"Cu": {"14": 15, "12": 20, "10": 30},
	"Al": {"12": 15, "10": 25},
}

// ambientBand is one row of the 310.15(B)(1) correction table (30 °C
// reference). A factor of 0 means the column is undefined at that ambient.
type ambientBand struct {
	maxC    float64
	factors [3]float64
}

var ambientBands = []ambientBand{
	{10, [3]float64{1.29, 1.20, 1.15}},
	{15, [3]float64{1.22, 1.15, 1.12}},
	{20, [3]float64{1.15, 1.11, 1.08}},
	{25, [3]float64{1.08, 1.05, 1.04}},
	{30, [3]float64{1.00, 1.00, 1.00}},
	{35, [3]float64{0.91, 0.94, 0.96}},
	{40, [3]float64{0.82, 0.88, 0.91}},
	{45, [3]float64{0.71, 0.82, 0.87}},
	{50, [3]float64{0.58, 0.75, 0.82}},
	{55, [3]float64{0.41, 0.67, 0.76}},
	{60, [3]float64{0, 0.58, 0.71}},
	{65, [3]float64{0, 0.47, 0.65}},
	{70, [3]float64{0, 0.33, 0.58}},
	{75, [3]float64{0, 0, 0.50}},
	{80, [3]float64{0, 0, 0.41}},
	{85, [3]float64{0, 0, 0.29}},
}

// standardSteps are the standard overcurrent-device ratings derated
// ampacities are floored to.
var standardSteps = []float64{
	15, 20, 25, 30, 35, 40, 45, 50, 60, 70, 80, 90, 100, 110,
	125, 150, 175, 200, 225, 250, 300, 350, 400, 450, 500, 600,
}
