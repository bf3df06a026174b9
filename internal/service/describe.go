package service

// Qualitative descriptors for audio scalars, used to annotate prompt values
// so the model reasons about character rather than raw numbers.

func describeEnergy(energy float64) string {
	switch {
	case energy > 0.8:
		return "(Very High - Intense & Powerful)"
	case energy > 0.6:
		return "(High - Energetic & Lively)"
	case energy > 0.4:
		return "(Medium - Balanced)"
	case energy > 0.2:
		return "(Low - Calm & Relaxed)"
	default:
		return "(Very Low - Ambient & Peaceful)"
	}
}

func describeDanceability(danceability float64) string {
	switch {
	case danceability > 0.8:
		return "(Very High - Club Ready)"
	case danceability > 0.6:
		return "(High - Groovy)"
	case danceability > 0.4:
		return "(Medium - Moderate Groove)"
	case danceability > 0.2:
		return "(Low - Not Dance-Focused)"
	default:
		return "(Very Low - Ambient/Experimental)"
	}
}

func describeValence(valence float64) string {
	switch {
	case valence > 0.8:
		return "(Very Positive - Euphoric & Upbeat)"
	case valence > 0.6:
		return "(Positive - Happy & Cheerful)"
	case valence > 0.4:
		return "(Neutral - Balanced)"
	case valence > 0.2:
		return "(Negative - Melancholic)"
	default:
		return "(Very Negative - Dark & Somber)"
	}
}

func describeTempo(tempo float64) string {
	switch {
	case tempo > 140:
		return "(Very Fast - High Energy)"
	case tempo > 120:
		return "(Fast - Upbeat)"
	case tempo > 100:
		return "(Medium - Moderate)"
	case tempo > 80:
		return "(Slow - Relaxed)"
	default:
		return "(Very Slow - Downtempo)"
	}
}

func describeAcousticness(acousticness float64) string {
	switch {
	case acousticness > 0.7:
		return "(Highly Acoustic - Organic)"
	case acousticness > 0.4:
		return "(Somewhat Acoustic - Balanced)"
	default:
		return "(Electronic - Produced)"
	}
}
