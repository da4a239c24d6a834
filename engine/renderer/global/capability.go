package global

import "github.com/Carmen-Shannon/oxy-ro/common"

// fits reports whether a texture of size can be created under the device limit.
func fits(size common.ScreenSize, maxTextureDimension uint32) bool {
	return size.Width <= maxTextureDimension && size.Height <= maxTextureDimension
}

// CheckHighQualityInterface returns whether the high quality interface, which renders the interface at twice the
// screen resolution, can be used. The result only depends on the arguments.
//
// Parameters:
//   - requested: whether the user asked for the high quality interface
//   - screen: the screen size
//   - maxTextureDimension: the device's maximum 2D texture dimension
//
// Returns:
//   - bool: the effective setting
func CheckHighQualityInterface(requested bool, screen common.ScreenSize, maxTextureDimension uint32) bool {
	return requested && fits(screen.Scaled(2), maxTextureDimension)
}

// CheckSupersampling returns the highest supersampling level not above requested whose forward attachments fit
// under the device limit. The result only depends on the arguments.
//
// Parameters:
//   - requested: the requested level
//   - screen: the screen size
//   - maxTextureDimension: the device's maximum 2D texture dimension
//
// Returns:
//   - SSAA: the effective level, SSAAOff if nothing fits
func CheckSupersampling(requested SSAA, screen common.ScreenSize, maxTextureDimension uint32) SSAA {
	for level := requested; level > SSAAOff; level-- {
		if fits(screen.Scaled(level.Factor()), maxTextureDimension) {
			return level
		}
	}
	return SSAAOff
}
