// Package batch runs the hotspot pipeline over a folder of thermal images.
//
// A run discovers the supported images directly inside the input folder,
// analyzes them with a single configuration snapshot on a bounded pool of
// workers, and writes for each image:
//
//   - <stem>_processed.jpg: the overlay, with the source's EXIF block
//   - <stem>_mask.png: the final hotspot mask, when Options.SaveMasks is set
//
// plus a report.json describing the whole run. Images that fail to decode or
// save are skipped and listed in the report; they never abort the run.
package batch
