package paper2epub

// Version is the library and CLI version string.
const Version = "0.2.0"
