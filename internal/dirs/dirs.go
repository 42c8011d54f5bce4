package dirs

// StateDir is the root directory for all assetpipe runtime state files,
// relative to the project working directory.
const StateDir = ".assetpipe_state"

// ConfigDir is the directory where pipeline manifest files are loaded from,
// relative to the project working directory.
const ConfigDir = ".assetpipe"

// OverridesFile is the path to the optional overrides file,
// relative to the project working directory.
const OverridesFile = ".assetpipe.overrides.yaml"
