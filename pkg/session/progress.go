package session

const (
	// progressKnee is the answer count at which the linear band ends.
	progressKnee = 8
	// progressCeiling is the highest value shown before a verdict.
	progressCeiling = 95.0
)

// Progress estimates completion as a percentage.
//
// The total number of questions is unknown up front, so the first answers
// move the bar quickly (a/12 of 80%) and later answers approach a ceiling of
// 95%. Only a terminal session reports 100.
func Progress(answered int, terminal bool) float64 {
	if terminal {
		return 100
	}
	if answered <= 0 {
		return 0
	}
	var p float64
	if answered <= progressKnee {
		p = float64(answered) / 12 * 80
	} else {
		p = 80 + float64(answered-progressKnee)/4*20
	}
	return min(p, progressCeiling)
}
