package fieldmap

import (
	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

// The static field layouts. Two DWG layouts exist: the 2000 format keys
// properties by an explicit index byte, while 2004+ writes a fixed
// sequence whose position is the identifier. HWP keys its summary
// information by OLE property set IDs.

// dwgSequential is the property order of the DWG 2004/2007/2010 header
// section; position in the stream is the index. Index 6 is present in the
// stream but has no known meaning.
var dwgSequential = &Mapper{
	family:       format.DWG,
	customPrefix: "dwg-prop",
	indexed: map[int]string{
		0: model.FieldTitle,
		1: model.FieldDescription,
		2: model.FieldCreator,
		3: model.FieldKeywords,
		4: model.FieldComments,
		5: model.FieldModifier,
		6: "",
		7: model.FieldRelation,
	},
}

// dwg2000Indexed is the DWG 2000 indexed layout. Indices 0 and 5 are
// reserved; 0x012C carries "name=value" custom pairs and is handled by
// the driver directly.
var dwg2000Indexed = &Mapper{
	family:       format.DWG,
	version:      "AC1015",
	customPrefix: "dwg-prop",
	indexed: map[int]string{
		0: "",
		1: model.FieldRelation,
		2: model.FieldTitle,
		3: model.FieldDescription,
		4: model.FieldCreator,
		5: "",
		6: model.FieldComments,
		7: model.FieldKeywords,
		8: model.FieldModifier,
	},
}

// hwpSummary maps HWP summary-information property set IDs.
var hwpSummary = &Mapper{
	family:       format.HWP,
	customPrefix: "pid",
	indexed: map[int]string{
		2:  model.FieldTitle,
		3:  model.FieldDescription,
		4:  model.FieldCreator,
		5:  model.FieldKeywords,
		6:  model.FieldComments,
		8:  model.FieldModifier,
		12: model.FieldCreated,
		13: model.FieldModified,
	},
}

// mifDocInfo maps the Key names of the MIF PDFDocInfo statement.
var mifDocInfo = &Mapper{
	family:       format.MIF,
	customPrefix: "mif",
	named: map[string]string{
		"Title":    model.FieldTitle,
		"Subject":  model.FieldDescription,
		"Author":   model.FieldCreator,
		"Keywords": model.FieldKeywords,
	},
}

// rtfInfo maps the control words of the RTF \info group.
var rtfInfo = &Mapper{
	family:       format.RTF,
	customPrefix: "rtf",
	named: map[string]string{
		"title":    model.FieldTitle,
		"subject":  model.FieldDescription,
		"author":   model.FieldCreator,
		"operator": model.FieldModifier,
		"keywords": model.FieldKeywords,
		"doccomm":  model.FieldComments,
		"company":  model.FieldPublisher,
	},
}

// wordmlProps maps the o:DocumentProperties child elements of Word 2003
// XML.
var wordmlProps = &Mapper{
	family:       format.WordML,
	customPrefix: "wordml",
	named: map[string]string{
		"Title":       model.FieldTitle,
		"Subject":     model.FieldDescription,
		"Author":      model.FieldCreator,
		"Keywords":    model.FieldKeywords,
		"Description": model.FieldComments,
		"LastAuthor":  model.FieldModifier,
		"Created":     model.FieldCreated,
		"LastSaved":   model.FieldModified,
		"Company":     model.FieldPublisher,
	},
}

var layouts = map[layoutKey]*Mapper{
	{format.DWG, "AC1015"}: dwg2000Indexed,
	{format.DWG, "AC1018"}: dwgSequential,
	{format.DWG, "AC1021"}: dwgSequential,
	{format.DWG, "AC1024"}: dwgSequential,
	{format.DWG, "AC1027"}: dwgSequential,
	{format.HWP, ""}:       hwpSummary,
	{format.MIF, ""}:       mifDocInfo,
	{format.RTF, ""}:       rtfInfo,
	{format.WordML, ""}:    wordmlProps,
}
