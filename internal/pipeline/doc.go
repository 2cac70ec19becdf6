// Package pipeline turns one source image into one output file: crop,
// orientation, resize, format resolution, encode and the atomic write,
// in a fixed order.
//
// Crops arrive in normalized view coordinates and are inverted onto the
// source before any orientation work, so rotation and flips only touch
// the pixels that survive the crop. Resizing never upscales. File-size
// targets hand the encode off to the sizetarget search, cloning the
// working image per probe.
//
// The pipeline is engine-agnostic: it drives whatever codec.Engine it
// was built with and reports formats the engine cannot encode as
// errors rather than silently substituting.
package pipeline
