// Package jsv implements JSV, a compact text format for streams of JSON
// records that share a structure.
//
// A template declares the keys and array layout of a record family once:
//
//	{"id","name","tags","owner":{"email"}}
//
// Records encoded against it spell out values only, in template order:
//
//	{17,"disk",["ssd","nvme"],{"ops@example.com"}}
//
// Empty slots mean the key is absent ({1,,3,}), keys the template does not
// declare follow as explicit pairs ({1,2,3,4,"extra":true}) and the last
// slot of an array template is reused for every further element, so
// [{"key_1"}] describes arrays of any length.
//
// ParseTemplate and InferTemplate build an immutable *Template;
// Template.Encode and Template.Decode convert between values and record
// text. Decoded objects are *jsonmap.Map, which keeps key order, and
// numbers are jsonmap.Number, which keeps their literal text.
//
// Multiplexing several templates in one stream lives in the collection
// and stream packages.
package jsv
