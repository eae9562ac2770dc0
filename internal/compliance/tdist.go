package compliance

// LargeSampleCritical is the two-tailed alpha=0.05 critical value used beyond
// the tabulated degrees of freedom.
const LargeSampleCritical = 1.960

// maxTabulatedDF is the largest degrees of freedom held in tCritical.
const maxTabulatedDF = 200

// tCritical holds two-tailed alpha=0.05 Student t critical values for every
// integer degrees of freedom from 1 to maxTabulatedDF, rounded to three places.
var tCritical = map[int]float64{
	1: 12.706, 2: 4.303, 3: 3.182, 4: 2.776, 5: 2.571,
	6: 2.447, 7: 2.365, 8: 2.306, 9: 2.262, 10: 2.228,
	11: 2.201, 12: 2.179, 13: 2.160, 14: 2.145, 15: 2.131,
	16: 2.120, 17: 2.110, 18: 2.101, 19: 2.093, 20: 2.086,
	21: 2.080, 22: 2.074, 23: 2.069, 24: 2.064, 25: 2.060,
	26: 2.056, 27: 2.052, 28: 2.048, 29: 2.045, 30: 2.042,
	31: 2.040, 32: 2.037, 33: 2.035, 34: 2.032, 35: 2.030,
	36: 2.028, 37: 2.026, 38: 2.024, 39: 2.023, 40: 2.021,
	41: 2.020, 42: 2.018, 43: 2.017, 44: 2.015, 45: 2.014,
	46: 2.013, 47: 2.012, 48: 2.011, 49: 2.010, 50: 2.009,
	51: 2.008, 52: 2.007, 53: 2.006, 54: 2.005, 55: 2.004,
	56: 2.003, 57: 2.002, 58: 2.002, 59: 2.001, 60: 2.000,
	61: 2.000, 62: 1.999, 63: 1.998, 64: 1.998, 65: 1.997,
	66: 1.997, 67: 1.996, 68: 1.995, 69: 1.995, 70: 1.994,
	71: 1.994, 72: 1.993, 73: 1.993, 74: 1.993, 75: 1.992,
	76: 1.992, 77: 1.991, 78: 1.991, 79: 1.990, 80: 1.990,
	81: 1.990, 82: 1.989, 83: 1.989, 84: 1.989, 85: 1.988,
	86: 1.988, 87: 1.988, 88: 1.987, 89: 1.987, 90: 1.987,
	91: 1.986, 92: 1.986, 93: 1.986, 94: 1.986, 95: 1.985,
	96: 1.985, 97: 1.985, 98: 1.984, 99: 1.984, 100: 1.984,
	101: 1.984, 102: 1.983, 103: 1.983, 104: 1.983, 105: 1.983,
	106: 1.983, 107: 1.982, 108: 1.982, 109: 1.982, 110: 1.982,
	111: 1.982, 112: 1.981, 113: 1.981, 114: 1.981, 115: 1.981,
	116: 1.981, 117: 1.980, 118: 1.980, 119: 1.980, 120: 1.980,
	121: 1.980, 122: 1.980, 123: 1.979, 124: 1.979, 125: 1.979,
	126: 1.979, 127: 1.979, 128: 1.979, 129: 1.979, 130: 1.978,
	131: 1.978, 132: 1.978, 133: 1.978, 134: 1.978, 135: 1.978,
	136: 1.978, 137: 1.977, 138: 1.977, 139: 1.977, 140: 1.977,
	141: 1.977, 142: 1.977, 143: 1.977, 144: 1.977, 145: 1.976,
	146: 1.976, 147: 1.976, 148: 1.976, 149: 1.976, 150: 1.976,
	151: 1.976, 152: 1.976, 153: 1.976, 154: 1.975, 155: 1.975,
	156: 1.975, 157: 1.975, 158: 1.975, 159: 1.975, 160: 1.975,
	161: 1.975, 162: 1.975, 163: 1.975, 164: 1.975, 165: 1.974,
	166: 1.974, 167: 1.974, 168: 1.974, 169: 1.974, 170: 1.974,
	171: 1.974, 172: 1.974, 173: 1.974, 174: 1.974, 175: 1.974,
	176: 1.974, 177: 1.973, 178: 1.973, 179: 1.973, 180: 1.973,
	181: 1.973, 182: 1.973, 183: 1.973, 184: 1.973, 185: 1.973,
	186: 1.973, 187: 1.973, 188: 1.973, 189: 1.973, 190: 1.973,
	191: 1.972, 192: 1.972, 193: 1.972, 194: 1.972, 195: 1.972,
	196: 1.972, 197: 1.972, 198: 1.972, 199: 1.972, 200: 1.972,
}

// CriticalValue returns the two-tailed alpha=0.05 critical t for df.
// ok is false for df < 1.
func CriticalValue(df int) (value float64, ok bool) {
	if df < 1 {
		return 0, false
	}
	if df > maxTabulatedDF {
		return LargeSampleCritical, true
	}
	return tCritical[df], true
}
