package light

import "github.com/Carmen-Shannon/oxy-ro/common"

// TileSize is the width and height in pixels of each screen-space tile used for tiled light culling.
const TileSize = 16

// MaxLightsPerTile is the maximum number of light indices stored per tile. Excess lights are silently dropped.
const MaxLightsPerTile = 256

// MaxGPULights is the maximum number of point lights uploaded for culling per frame.
const MaxGPULights = 1024

// TileCounts computes the number of tiles in each dimension for a given screen size.
//
// Parameters:
//   - size: the screen size in pixels
//
// Returns:
//   - tileCountX: number of tile columns
//   - tileCountY: number of tile rows
func TileCounts(size common.ScreenSize) (tileCountX, tileCountY uint32) {
	tileCountX = (size.Width + TileSize - 1) / TileSize
	tileCountY = (size.Height + TileSize - 1) / TileSize
	return
}
