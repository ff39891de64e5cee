package pipeline

import (
	"github.com/j-taylor87/dcmpress/dicom"
)

// NotAvailable replaces attributes that are absent from a file.
const NotAvailable = "N/A"

// Summary holds the attributes displayed for a file before and after decoding.
type Summary struct {
	PatientName        string
	TransferSyntaxUID  string
	TransferSyntaxName string
	SOPInstanceUID     string
}

// Summarize extracts the Summary of ds. Absent attributes are reported as NotAvailable.
func Summarize(ds *dicom.DataSet) Summary {
	text := func(tag dicom.DataElementTag) string {
		s, err := ds.Text(tag)
		if err != nil {
			return NotAvailable
		}
		return s
	}
	s := Summary{
		PatientName:        text(dicom.PatientNameTag),
		TransferSyntaxUID:  text(dicom.TransferSyntaxUIDTag),
		SOPInstanceUID:     text(dicom.SOPInstanceUIDTag),
		TransferSyntaxName: NotAvailable,
	}
	if s.TransferSyntaxUID != NotAvailable {
		s.TransferSyntaxName = dicom.TransferSyntaxName(s.TransferSyntaxUID)
	}
	return s
}
