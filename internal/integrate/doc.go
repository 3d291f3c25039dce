// Package integrate reduces a radial energy profile to an adsorption free
// energy and to the MFPT·D product for escape from the profile minimum.
package integrate
