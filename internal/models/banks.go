package models

// BankInfo describes a supported bank for the linking flow.
type BankInfo struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	IFSCPrefix string `json:"ifsc_prefix"`
}

// SupportedBanks is the static list served to the linking UI. IFSC prefixes
// are the public NPCI-assigned codes.
var SupportedBanks = []BankInfo{
	{Code: "SBI", Name: "State Bank of India", IFSCPrefix: "SBIN"},
	{Code: "HDFC", Name: "HDFC Bank", IFSCPrefix: "HDFC"},
	{Code: "ICICI", Name: "ICICI Bank", IFSCPrefix: "ICIC"},
	{Code: "AXIS", Name: "Axis Bank", IFSCPrefix: "UTIB"},
	{Code: "PNB", Name: "Punjab National Bank", IFSCPrefix: "PUNB"},
	{Code: "BOB", Name: "Bank of Baroda", IFSCPrefix: "BARB"},
	{Code: "CANARA", Name: "Canara Bank", IFSCPrefix: "CNRB"},
	{Code: "KOTAK", Name: "Kotak Mahindra Bank", IFSCPrefix: "KKBK"},
	{Code: "IDBI", Name: "IDBI Bank", IFSCPrefix: "IBKL"},
	{Code: "YES", Name: "Yes Bank", IFSCPrefix: "YESB"},
	{Code: "INDUSIND", Name: "IndusInd Bank", IFSCPrefix: "INDB"},
	{Code: "FEDERAL", Name: "Federal Bank", IFSCPrefix: "FDRL"},
	{Code: "BOI", Name: "Bank of India", IFSCPrefix: "BKID"},
	{Code: "UNION", Name: "Union Bank of India", IFSCPrefix: "UBIN"},
	{Code: "IDFC", Name: "IDFC First Bank", IFSCPrefix: "IDFB"},
}
