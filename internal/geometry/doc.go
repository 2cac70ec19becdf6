/*
Package geometry models the per-image view transform (quarter-turn
rotations plus mirror flips) and crop selections, and converts between
the two coordinate spaces they live in.

A crop is selected in the transformed view the user sees, stored as a
rectangle normalized to [0,1] of that view. Extraction, however, runs on
the untransformed source pixels. InvertRect maps a normalized view
rectangle back through the transform into integer source coordinates.

The transform group has 8 distinct elements (4 rotations x optional
mirror); rotations are counted in clockwise 90 degree steps and flips
are applied after rotation in view space.
*/
package geometry
