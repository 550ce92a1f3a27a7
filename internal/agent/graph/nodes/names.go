package nodes

// Graph node keys.
const (
	NodeClassify = "Classify"
	NodeRetrieve = "Retrieve"
	NodeGenerate = "Generate"
	NodeCheck    = "PolicyCheck"
	NodeEscalate = "Escalate"
	NodeFinalize = "Finalize"
)
