// Package pagination provides the paging flags shared by grid commands and the
// page metadata printed with structured output.
//
// Sort flags accept the API form ("name", "-name") as well as "field:order"
// ("name:desc").
package pagination
